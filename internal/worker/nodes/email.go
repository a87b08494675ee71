package nodes

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/crypto"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/oauth"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
)

const gmailSendEndpoint = "https://gmail.googleapis.com/gmail/v1/users/me/messages/send"

// EmailNode sends a message either through a stored gmail-oauth credential
// (refreshing the access token first if it has expired) or through plain
// SMTP configured from node data/environment defaults (spec.md §4.3.6).
// MIME construction and the STARTTLS/SSL dispatch are kept from the
// teacher's integrations/email.go almost verbatim; only the credential
// sourcing changed.
type EmailNode struct {
	Encryptor *crypto.Encryptor
	Gmail     *oauth.GmailClient

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func (n *EmailNode) Type() string { return models.NodeKindEmail }

func (n *EmailNode) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	data := execCtx.Data

	to := core.GetString(data, "to", "")
	if to == "" {
		return nil, apperrors.Validation(execCtx.NodeID, "missing required field: to")
	}
	cc := core.GetString(data, "cc", "")
	bcc := core.GetString(data, "bcc", "")
	replyTo := core.GetString(data, "replyTo", "")
	subject := core.GetString(data, "subject", "")
	body := core.GetString(data, "body", "")
	htmlBody := core.GetString(data, "html", "")

	credIDStr := core.GetString(data, "credentialId", "")
	if credIDStr != "" {
		return n.sendViaGmail(ctx, execCtx, credIDStr, to, cc, bcc, replyTo, subject, body, htmlBody)
	}
	return n.sendViaSMTP(ctx, execCtx, to, cc, bcc, replyTo, subject, body, htmlBody)
}

func (n *EmailNode) sendViaGmail(ctx context.Context, execCtx *core.ExecutionContext, credIDStr, to, cc, bcc, replyTo, subject, body, htmlBody string) (map[string]interface{}, error) {
	credID, err := uuid.Parse(credIDStr)
	if err != nil {
		return nil, apperrors.Validation(execCtx.NodeID, "credentialId is not a valid uuid")
	}
	if execCtx.GetCredential == nil {
		return nil, apperrors.Handler(apperrors.CodeConfigMissing, "no credential resolver configured", nil)
	}
	cred, err := execCtx.GetCredential(credID)
	if err != nil {
		return nil, apperrors.Handler(apperrors.CodeConfigMissing, fmt.Sprintf("failed to load credential: %v", err), err)
	}
	if cred.Type != models.CredentialTypeGmailOAuth {
		return nil, apperrors.Validation(execCtx.NodeID, fmt.Sprintf("credential %s is not a gmail-oauth credential", credID))
	}

	var oauthData models.GmailOAuthData
	if err := n.Encryptor.DecryptInto(cred.Data, &oauthData); err != nil {
		return nil, apperrors.Handler(apperrors.CodeCryptoAuthFailed, "failed to decrypt gmail-oauth credential", err)
	}

	accessToken := oauthData.Tokens.AccessToken
	if time.Now().After(oauthData.Tokens.ExpiresAt) {
		refreshed, err := n.Gmail.RefreshToken(ctx, oauthData.ClientID, oauthData.ClientSecret, oauthData.Tokens.RefreshToken)
		if err != nil {
			return nil, apperrors.Handler(apperrors.CodeOAuthRefreshFailed, fmt.Sprintf("failed to refresh gmail token: %v", err), err)
		}
		accessToken = refreshed.AccessToken
		oauthData.Tokens.AccessToken = refreshed.AccessToken
		oauthData.Tokens.RefreshToken = refreshed.RefreshToken
		oauthData.Tokens.ExpiresAt = refreshed.ExpiresAt

		if execCtx.UpdateCredential != nil {
			encrypted, err := n.Encryptor.Encrypt(oauthData)
			if err != nil {
				return nil, apperrors.Handler(apperrors.CodeCryptoAuthFailed, "failed to encrypt refreshed gmail-oauth credential", err)
			}
			cred.Data = encrypted
			if err := execCtx.UpdateCredential(cred); err != nil {
				return nil, apperrors.Handler(apperrors.CodeConfigMissing, fmt.Sprintf("failed to persist refreshed gmail token: %v", err), err)
			}
		}
	}

	from := oauthData.Email
	var msg []byte
	if htmlBody != "" {
		msg = buildHTMLEmail(from, to, cc, replyTo, subject, body, htmlBody)
	} else {
		msg = buildPlainTextEmail(from, to, cc, replyTo, subject, body)
	}

	raw := encodeRawMessage(msg)
	if err := sendGmailMessage(ctx, accessToken, raw); err != nil {
		return nil, apperrors.Handler(apperrors.CodeUpstreamError, fmt.Sprintf("gmail send failed: %v", err), err)
	}

	return map[string]interface{}{
		"sent":         true,
		"provider":     "gmail-oauth",
		"to":           to,
		"subject":      subject,
		"refreshToken": oauthData.Tokens.RefreshToken,
		"accessToken":  accessToken,
		"expiresAt":    oauthData.Tokens.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (n *EmailNode) sendViaSMTP(ctx context.Context, execCtx *core.ExecutionContext, to, cc, bcc, replyTo, subject, body, htmlBody string) (map[string]interface{}, error) {
	data := execCtx.Data
	host := core.GetString(data, "smtpHost", n.SMTPHost)
	port := core.GetString(data, "smtpPort", n.SMTPPort)
	username := core.GetString(data, "smtpUser", n.SMTPUser)
	password := core.GetString(data, "smtpPass", n.SMTPPass)
	from := core.GetString(data, "from", n.SMTPFrom)
	if from == "" {
		from = username
	}
	if port == "" {
		port = "587"
	}

	if host == "" || username == "" || password == "" {
		return nil, apperrors.Handler(apperrors.CodeConfigMissing, "smtp host, user and password are required", nil)
	}

	var recipients []string
	recipients = append(recipients, parseEmails(to)...)
	if cc != "" {
		recipients = append(recipients, parseEmails(cc)...)
	}
	if bcc != "" {
		recipients = append(recipients, parseEmails(bcc)...)
	}
	if len(recipients) == 0 {
		return nil, apperrors.Validation(execCtx.NodeID, "no recipients specified")
	}

	var msg []byte
	if htmlBody != "" {
		msg = buildHTMLEmail(from, to, cc, replyTo, subject, body, htmlBody)
	} else {
		msg = buildPlainTextEmail(from, to, cc, replyTo, subject, body)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	auth := smtp.PlainAuth("", username, password, host)

	var sendErr error
	if port == "465" {
		sendErr = sendMailSSL(addr, auth, from, recipients, msg)
	} else {
		sendErr = sendMailTLS(addr, auth, from, recipients, msg, host)
	}
	if sendErr != nil {
		return nil, apperrors.Handler(apperrors.CodeUpstreamError, fmt.Sprintf("failed to send email: %v", sendErr), sendErr)
	}

	return map[string]interface{}{
		"sent":       true,
		"provider":   "smtp",
		"to":         to,
		"cc":         cc,
		"subject":    subject,
		"recipients": len(recipients),
	}, nil
}

func parseEmails(emails string) []string {
	var result []string
	for _, email := range strings.Split(emails, ",") {
		email = strings.TrimSpace(email)
		if email != "" {
			result = append(result, email)
		}
	}
	return result
}

func buildPlainTextEmail(from, to, cc, replyTo, subject, body string) []byte {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	if cc != "" {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", cc))
	}
	if replyTo != "" {
		msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", replyTo))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}

func buildHTMLEmail(from, to, cc, replyTo, subject, textBody, htmlBody string) []byte {
	boundary := "boundary-flowcraft-email"

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	if cc != "" {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", cc))
	}
	if replyTo != "" {
		msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", replyTo))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	msg.WriteString("\r\n")

	if textBody != "" {
		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(textBody)
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(msg.String())
}

// encodeRawMessage base64url-encodes an RFC 2822 message for the Gmail
// API's users.messages.send "raw" field.
func encodeRawMessage(msg []byte) string {
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(msg)
}

func sendGmailMessage(ctx context.Context, accessToken, rawMessage string) error {
	payload, err := json.Marshal(map[string]string{"raw": rawMessage})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gmailSendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gmail api returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func sendMailTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte, host string) error {
	conn, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}
	if err := conn.Auth(auth); err != nil {
		return err
	}
	if err := conn.Mail(from); err != nil {
		return err
	}
	for _, recipient := range to {
		if err := conn.Rcpt(recipient); err != nil {
			return err
		}
	}
	w, err := conn.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return conn.Quit()
}

func sendMailSSL(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
