// Package model defines the clipboard content types shared across the agent.
package model

import "fmt"

// Kind tags the variant carried by an Item.
type Kind int

const (
	KindText Kind = iota
	KindFile
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindFile:
		return "file"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Item is a tagged clipboard value: Text, FileRef or Image.
//
// The core mediator only ever dispatches on Kind; platform adapters are the
// only code that needs to know how a given Kind was acquired.
type Item struct {
	Kind Kind

	// Text holds the UTF-8 payload when Kind == KindText.
	Text string

	// Path holds the absolute path when Kind == KindFile.
	Path string

	// Image holds raw bitmap bytes when Kind == KindImage. Images are
	// classified like text but are never restored to the clipboard
	// (screen-capture defense, base spec §3).
	Image []byte
}

// NewText builds a KindText item.
func NewText(s string) *Item { return &Item{Kind: KindText, Text: s} }

// NewFile builds a KindFile item from an absolute path.
func NewFile(path string) *Item { return &Item{Kind: KindFile, Path: path} }

// NewImage builds a KindImage item.
func NewImage(b []byte) *Item { return &Item{Kind: KindImage, Image: b} }

// CanonicalBytes returns the byte form used for fingerprinting: UTF-8 bytes
// for text, the path string for file references, raw bytes for images.
func (it *Item) CanonicalBytes() []byte {
	switch it.Kind {
	case KindText:
		return []byte(it.Text)
	case KindFile:
		return []byte(it.Path)
	case KindImage:
		return it.Image
	default:
		return nil
	}
}

func (it *Item) String() string {
	switch it.Kind {
	case KindText:
		return fmt.Sprintf("Text(%d bytes)", len(it.Text))
	case KindFile:
		return fmt.Sprintf("FileRef(%s)", it.Path)
	case KindImage:
		return fmt.Sprintf("Image(%d bytes)", len(it.Image))
	default:
		return "Item(invalid)"
	}
}

// Verdict is the classifier's label for an Item's content body.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictText
	VerdictCode
)

func (v Verdict) String() string {
	switch v {
	case VerdictText:
		return "Text"
	case VerdictCode:
		return "Code"
	default:
		return "Unknown"
	}
}
