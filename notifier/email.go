// Package notifier delivers trade alerts over SMTP and records every
// attempt in the alert log.
package notifier

import (
	"fmt"
	"strings"
	"time"

	models "insider-tracker/database/models_pkg"

	gomail "gopkg.in/gomail.v2"
)

const divider = "----------------------------------------"

// EmailNotifier sends plain-text trade alerts to a fixed recipient
// list. Transport failures come back as errors; they never panic and
// never escape past the dispatcher.
type EmailNotifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	useTLS   bool
}

// NewEmailNotifier creates an SMTP notifier. useTLS selects STARTTLS;
// otherwise the connection is implicit SSL.
func NewEmailNotifier(host string, port int, username, password, from string, to []string, useTLS bool) *EmailNotifier {
	return &EmailNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		useTLS:   useTLS,
	}
}

// Recipients returns the configured destination list as one string
// for alert-log rows.
func (n *EmailNotifier) Recipients() string {
	return strings.Join(n.to, ", ")
}

func (n *EmailNotifier) dialer() *gomail.Dialer {
	d := gomail.NewDialer(n.host, n.port, n.username, n.password)
	d.SSL = !n.useTLS
	return d
}

// SendTradeAlert delivers a single-trade alert.
func (n *EmailNotifier) SendTradeAlert(wallet *models.TrackedWallet, trade *models.Trade) error {
	subject := fmt.Sprintf("New Trade Alert: %s", wallet.DisplayName())
	return n.send(subject, FormatTradeBody(wallet, trade))
}

// SendBatchAlert delivers one digest covering several trades grouped
// by wallet display name.
func (n *EmailNotifier) SendBatchAlert(groups map[string][]*models.Trade) error {
	total := 0
	for _, trades := range groups {
		total += len(trades)
	}
	subject := fmt.Sprintf("Trade Alert: %d New Trades", total)
	return n.send(subject, FormatBatchBody(groups))
}

// TestConnection dials and authenticates against the SMTP server
// without sending anything. This is the credential probe exposed by
// the API.
func (n *EmailNotifier) TestConnection() error {
	closer, err := n.dialer().Dial()
	if err != nil {
		return fmt.Errorf("smtp connection failed: %w", err)
	}
	return closer.Close()
}

func (n *EmailNotifier) send(subject, body string) error {
	if len(n.to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer().DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

// FormatTradeBody renders the single-trade alert body.
func FormatTradeBody(wallet *models.TrackedWallet, trade *models.Trade) string {
	var b strings.Builder
	b.WriteString("New Polymarket trade detected\n\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Wallet:      %s\n", wallet.DisplayName())
	fmt.Fprintf(&b, "Address:     %s\n", wallet.WalletAddress)
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Market:      %s\n", orUnknown(trade.MarketName))
	fmt.Fprintf(&b, "Asset ID:    %s\n", orUnknown(trade.AssetID))
	fmt.Fprintf(&b, "Side:        %s\n", strings.ToUpper(orUnknown(trade.Side)))
	fmt.Fprintf(&b, "Price:       %s\n", formatPrice(trade.Price))
	fmt.Fprintf(&b, "Shares:      %s\n", formatAmount(trade.Shares))
	fmt.Fprintf(&b, "USD Amount:  %s\n", formatUSD(trade.UsdAmount))
	fmt.Fprintf(&b, "Timestamp:   %s\n", formatTime(trade.Timestamp))
	b.WriteString(divider + "\n\n")
	b.WriteString("This is an automated alert from the Polymarket trade tracker.\n")
	return b.String()
}

// FormatBatchBody renders the per-wallet digest body.
func FormatBatchBody(groups map[string][]*models.Trade) string {
	total := 0
	for _, trades := range groups {
		total += len(trades)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d new trades detected from tracked wallets\n\n", total)
	b.WriteString(divider + "\n")
	for name, trades := range groups {
		fmt.Fprintf(&b, "\n%s (%d trades):\n", name, len(trades))
		for _, trade := range trades {
			fmt.Fprintf(&b, "  - %s | %s | %s\n",
				orUnknown(trade.MarketName),
				strings.ToUpper(orUnknown(trade.Side)),
				formatUSD(trade.UsdAmount))
		}
	}
	b.WriteString("\n" + divider + "\n\n")
	b.WriteString("This is an automated alert from the Polymarket trade tracker.\n")
	return b.String()
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func formatPrice(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.4f", *value)
}

func formatUSD(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", *value)
}

func formatAmount(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *value)
}

func formatTime(timestamp string) string {
	if t, err := time.Parse(models.ISOFormat, timestamp); err == nil {
		return t.Format("2006-01-02 15:04:05") + " UTC"
	}
	return orUnknown(timestamp)
}
