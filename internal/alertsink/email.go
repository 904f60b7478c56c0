package alertsink

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// emailTemplate mirrors the HTML body the original agent's git-push email
// helper generates, adapted to Go's html/template (base spec §4.5/§4.10)
// and parameterized over the three alert kinds it names.
var emailTemplate = template.Must(template.New("policy_alert").Parse(`
<html><body style="font-family: 'Segoe UI', sans-serif; color: #333; background-color: #f8f9fa; padding: 20px;">
    <div style="background-color: #fff; padding: 40px; border-radius: 8px; border-top: 6px solid #d83b01; max-width: 750px; margin: auto; box-shadow: 0 2px 10px rgba(0,0,0,0.05);">
        <h2 style="color: #212529; margin-top: 0;">A medium-severity alert has been triggered</h2>
        <p style="font-size: 15px; color: #666;">{{.Intro}}</p>
        <div style="background-color: #faf9f8; padding: 15px; border-left: 4px solid #a4262c; margin: 20px 0;">
            <strong style="color: #a4262c;">Severity: Medium</strong>
        </div>
        <table style="width: 100%; font-size: 14px; line-height: 1.8; border-collapse: collapse;">
            <tr><td style="width: 220px; font-weight: bold; color: #444;">Time of occurrence:</td><td>{{.TimeLocal}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">Activity:</td><td>{{.Activity}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">User:</td><td style="color: #0078d4;">{{.User}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">Policy:</td><td>{{.Policy}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">Alert ID:</td><td style="color: #666; font-family: monospace;">{{.AlertID}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">Detail:</td><td style="color: #d83b01; font-weight: bold; font-family: monospace;">{{.DetailValue}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">Source application:</td><td>{{.App}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">Device:</td><td>{{.Device}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">IP:</td><td>{{.IP}}</td></tr>
            <tr><td style="font-weight: bold; color: #444;">Status:</td><td style="color: #a4262c; font-weight: bold;">BLOCK</td></tr>
        </table>
        <hr style="border: 0; border-top: 1px solid #e1dfdd; margin: 25px 0;">
        <h3 style="font-size: 16px;">Details:</h3>
        <div style="background-color: #f3f2f1; padding: 15px; border: 1px solid #e1dfdd; font-family: Consolas, monospace; font-size: 13px; color: #d13438;">
            {{.DetailText}}
        </div>
    </div>
</body></html>
`))

type emailFields struct {
	Intro       string
	TimeLocal   string
	User        string
	Activity    string
	Policy      string
	AlertID     string
	DetailValue string
	DetailText  string
	App         string
	Device      string
	IP          string
}

// SMTPAdminNotifier sends policy-match alerts to a fixed recipient over an
// STARTTLS SMTP relay, matching the original agent's smtp.office365.com:587
// flow.
type SMTPAdminNotifier struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Receiver string
	DeviceID string
	Log      AuditLog
	logger   *zap.Logger
}

// NewSMTPAdminNotifier builds a notifier. log may be nil to skip auditing.
func NewSMTPAdminNotifier(host string, port int, sender, password, receiver, deviceID string, log AuditLog, logger *zap.Logger) *SMTPAdminNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPAdminNotifier{
		Host: host, Port: port, Sender: sender, Password: password,
		Receiver: receiver, DeviceID: deviceID, Log: log, logger: logger,
	}
}

func (n *SMTPAdminNotifier) NotifyGitPush(ctx context.Context, repoURL string) error {
	return n.notify(ctx, KindGitPush, "", repoURL, emailFields{
		Intro:       "DLP policy matched for git push to external repository on a managed device.",
		Activity:    "DlpRuleMatch (Git Push)",
		Policy:      "DLP_Block_SourceCode",
		DetailValue: repoURL,
		DetailText:  "Attempted to push code to external repository outside whitelist.",
	})
}

func (n *SMTPAdminNotifier) NotifyClipboardPaste(ctx context.Context, preview, app string) error {
	return n.notify(ctx, KindClipboardHold, app, preview, emailFields{
		Intro:       "DLP policy matched for a clipboard paste of source code into an untrusted application.",
		Activity:    "DlpRuleMatch (Clipboard Paste)",
		Policy:      "DLP_Block_SourceCode",
		DetailValue: preview,
		DetailText:  "Attempted to paste source code content into an application outside the trusted set.",
	})
}

func (n *SMTPAdminNotifier) NotifyFileCopy(ctx context.Context, path, app string) error {
	return n.notify(ctx, KindClipboardHold, app, path, emailFields{
		Intro:       "DLP policy matched for a file copy of source code into an untrusted application.",
		Activity:    "DlpRuleMatch (File Copy)",
		Policy:      "DLP_Block_SourceCode",
		DetailValue: path,
		DetailText:  "Attempted to copy a source code file into an application outside the trusted set.",
	})
}

func (n *SMTPAdminNotifier) notify(ctx context.Context, kind Kind, app, detail string, fields emailFields) error {
	alertID := uuid.New().String()
	record := NewRecord(kind, app, detail)
	record.ID = alertID

	fields.AlertID = alertID
	fields.App = app
	body, err := n.render(fields)
	if err != nil {
		n.finish(record, err)
		return fmt.Errorf("failed to render alert email: %w", err)
	}

	if n.Sender == "" || n.Password == "" || n.Receiver == "" {
		// Per base spec §4.5/§7: missing email configuration is tolerated,
		// the alert is logged-and-swallowed rather than fatal.
		err := fmt.Errorf("email not configured, dropping alert")
		n.finish(record, err)
		n.logger.Warn("skipping email alert, SMTP not configured", zap.String("alert_id", alertID))
		return nil
	}

	subject := "Medium-severity alert: " + fields.Activity + " in a device"
	if err := n.send(ctx, subject, body); err != nil {
		n.finish(record, err)
		n.logger.Error("failed to send alert email", zap.Error(err), zap.String("alert_id", alertID))
		return fmt.Errorf("failed to send alert: %w", err)
	}

	record.Delivered = true
	n.finish(record, nil)
	n.logger.Info("alert email sent", zap.String("alert_id", alertID), zap.String("activity", fields.Activity))
	return nil
}

func (n *SMTPAdminNotifier) finish(r Record, err error) {
	if n.Log == nil {
		return
	}
	if err != nil {
		r.DeliverError = err.Error()
	}
	if logErr := n.Log.Append(r); logErr != nil {
		n.logger.Debug("failed to append alert audit record", zap.Error(logErr))
	}
}

func (n *SMTPAdminNotifier) render(fields emailFields) (string, error) {
	hostname, _ := os.Hostname()
	fields.TimeLocal = time.Now().Format("02/01/2006 03:04:05 PM")
	fields.User = n.DeviceID
	fields.Device = hostname
	fields.IP = localIP()

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, fields); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (n *SMTPAdminNotifier) send(ctx context.Context, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)

	msg := bytes.Buffer{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", n.Sender))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", n.Receiver))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(htmlBody)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial smtp relay: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.Host)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	defer client.Close()

	if err := client.Hello("dlpagent"); err != nil {
		return err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: n.Host}); err != nil {
			return fmt.Errorf("starttls failed: %w", err)
		}
		if err := client.Hello("dlpagent"); err != nil {
			return err
		}
	}

	auth := smtp.PlainAuth("", n.Sender, n.Password, n.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(n.Sender); err != nil {
		return err
	}
	if err := client.Rcpt(n.Receiver); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}

var _ AdminNotifier = (*SMTPAdminNotifier)(nil)
