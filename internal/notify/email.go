// Package notify is the downstream boundary of a scan: it turns the
// aggregated batches into CSV exports and an HTML email to the client.
// Dry-run mode still writes the CSV files but never dispatches mail.
package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"log"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
)

// Emailer satisfies the scan package's Notifier.
type Emailer struct {
	DataDir  string
	Settings func() config.Settings
	Password func() (string, error) // SMTP password, resolved per send

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailer(dataDir string, settings func() config.Settings, password func() (string, error)) *Emailer {
	return &Emailer{
		DataDir:  dataDir,
		Settings: settings,
		Password: password,
		send:     smtp.SendMail,
	}
}

// SendBatch writes one CSV per non-empty batch, then mails them to the
// client with an HTML summary. Send failures are logged, not returned, so
// a mail outage never fails an otherwise successful scan.
func (e *Emailer) SendBatch(ctx context.Context, client domain.Client, batches domain.Batches, dryRun bool) error {
	total := batches.Total()
	if total == 0 {
		log.Printf("[notify] no leads to send for %s", client.BusinessName)
		return nil
	}

	var attachments []string
	for _, b := range batches.Maps {
		path, err := writeBatchCSV(e.DataDir, domain.SourceMaps, b)
		if err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		attachments = append(attachments, path)
	}
	for _, b := range batches.Yelp {
		path, err := writeBatchCSV(e.DataDir, domain.SourceYelp, b)
		if err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		attachments = append(attachments, path)
	}

	if dryRun {
		log.Printf("[notify] dry run: would send %d lead(s) to %s (%d csv file(s) written)",
			total, client.Email, len(attachments))
		return nil
	}

	cfg := e.Settings()
	if cfg.SMTP.User == "" {
		log.Printf("[notify] cannot send email, smtp user not configured")
		return nil
	}
	pass, err := e.Password()
	if err != nil || pass == "" {
		log.Printf("[notify] cannot send email, smtp password unavailable: %v", err)
		return nil
	}

	subject := fmt.Sprintf("%d New Leads for %s", total, client.BusinessName)
	body := buildHTMLBody(client, batches, total)
	msg, err := buildMessage(cfg.SMTP.User, client.Email, subject, body, attachments)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.SMTP.Host, cfg.SMTP.Port)
	auth := smtp.PlainAuth("", cfg.SMTP.User, pass, cfg.SMTP.Host)
	if err := e.send(addr, auth, cfg.SMTP.User, []string{client.Email}, msg); err != nil {
		log.Printf("[notify] failed to send email to %s: %v", client.Email, err)
		return nil
	}
	log.Printf("[notify] email sent to %s with %d lead(s)", client.Email, total)
	return nil
}

func buildHTMLBody(client domain.Client, batches domain.Batches, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>New Leads Found for %s</h2>", html.EscapeString(client.BusinessName))
	fmt.Fprintf(&b, "<p>Total: <strong>%d</strong> new leads</p>", total)

	writeSource := func(title string, list []domain.Batch, withRating bool) {
		if len(list) == 0 {
			return
		}
		fmt.Fprintf(&b, "<h3>%s</h3>", title)
		for _, batch := range list {
			fmt.Fprintf(&b, "<h4>%s in %s (%d leads)</h4><ul>",
				html.EscapeString(batch.Keyword), html.EscapeString(batch.TargetCity), len(batch.Leads))
			for _, lead := range batch.Leads {
				fmt.Fprintf(&b, "<li><strong>%s</strong><br>", html.EscapeString(lead.BusinessName))
				if lead.Phone != "" {
					fmt.Fprintf(&b, "Phone: %s<br>", html.EscapeString(lead.Phone))
				}
				if lead.Website != "" {
					fmt.Fprintf(&b, `Website: <a href="%s">%s</a><br>`, lead.Website, html.EscapeString(lead.Website))
				}
				city := lead.City
				if city == "" {
					city = lead.TargetCity
				}
				fmt.Fprintf(&b, "Location: %s<br>", html.EscapeString(city))
				if withRating {
					fmt.Fprintf(&b, "Rating: %.1f (%d reviews)</li>", lead.Rating, lead.ReviewCount)
				} else {
					fmt.Fprintf(&b, `<a href="%s">View on Google Maps</a></li>`, lead.MapURL)
				}
			}
			b.WriteString("</ul>")
		}
	}
	writeSource("Google Maps Leads", batches.Maps, false)
	writeSource("Yelp Leads", batches.Yelp, true)
	return b.String()
}

// buildMessage assembles a multipart/mixed MIME message with the HTML body
// and each CSV as a base64 attachment.
func buildMessage(from, to, subject, htmlBody string, attachments []string) ([]byte, error) {
	var buf strings.Builder
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {`text/html; charset="utf-8"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(htmlBody)); err != nil {
		return nil, err
	}

	for _, path := range attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("text/csv; name=%q", name)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", name)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, err
		}
		enc := base64.StdEncoding.EncodeToString(data)
		// RFC 2045 line length limit.
		for len(enc) > 76 {
			if _, err := part.Write([]byte(enc[:76] + "\r\n")); err != nil {
				return nil, err
			}
			enc = enc[76:]
		}
		if _, err := part.Write([]byte(enc + "\r\n")); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
