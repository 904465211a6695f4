package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"

	q "github.com/idturva/subscription-portal/internal/queue"
)

// Mailer sends transactional mail through the managed email-sending
// service's HTTP API. The API key lives only on the server; nothing
// credential-shaped is ever handed to a browser.
type Mailer struct {
	APIURL string
	APIKey string
	From   string
	Client *http.Client
}

// NewMailer builds a Mailer with a bounded request timeout.
func NewMailer(apiURL, apiKey, from string) *Mailer {
	return &Mailer{
		APIURL: apiURL,
		APIKey: apiKey,
		From:   from,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(
	`Hei {{.CustomerName}},

kiitos tilauksestasi!

Order {{.OrderNumber}}
{{range .Items}}  {{.Title}}  {{.Price}} x {{.Quantity}}
{{end}}Total: {{.TotalAmount}}

Please confirm your order by clicking the link below:

{{.ConfirmationURL}}

If you did not place this order, you can ignore this message.
`))

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendOrderConfirmation renders the confirmation email for a created order
// and posts it to the email API. A non-2xx response is an error; the
// caller decides whether that is fatal (for the checkout flow it never is).
func (m *Mailer) SendOrderConfirmation(ev q.OrderCreatedEvent) error {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, ev); err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	return m.send(sendRequest{
		From:    m.From,
		To:      ev.CustomerEmail,
		Subject: fmt.Sprintf("Vahvista tilauksesi %s", ev.OrderNumber),
		Text:    body.String(),
	})
}

func (m *Mailer) send(req sendRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}
	httpReq, err := http.NewRequest(http.MethodPost, m.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.APIKey)
	}
	resp, err := m.Client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post to email api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email api returned %s", resp.Status)
	}
	return nil
}
