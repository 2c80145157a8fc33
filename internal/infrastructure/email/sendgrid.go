package email

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/waste3d/edemy-api/internal/logger"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
	subjectPrefix    = "[Edemy] "
)

type SendgridService struct {
	key    string
	host   string
	from   *sgmail.Email
	logger logger.Logger
}

var _ Sender = (*SendgridService)(nil)

func NewSendgridService(key string, from mail.Address, log logger.Logger) *SendgridService {
	return &SendgridService{
		key:    key,
		host:   sendgridHost,
		from:   sgmail.NewEmail(from.Name, from.Address),
		logger: log,
	}
}

func (svc *SendgridService) SendMessages(messages ...*Message) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if msg.HasRecipients() {
				_ = svc.send(*msg)
			}
		}()
	}
}

func (svc *SendgridService) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = subjectPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)
	return m
}

func (svc *SendgridService) send(msg Message) error {
	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, svc.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		err = fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
		svc.logger.Error(err.Error())
		return err
	}
	return nil
}
