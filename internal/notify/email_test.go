package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/no2forms/intake-assistant/internal/booking"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "bookings@no2forms.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "bookings@no2forms.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "no2forms" {
		t.Errorf("expected default from name 'no2forms', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{client: nil}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "ops@no2forms.com",
		Subject: "Test",
		Body:    "Test body",
	})
	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)
	if err := sender.Send(context.Background(), EmailMessage{To: "ops@no2forms.com", Subject: "s", Body: "b"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type recordingSender struct {
	sent []EmailMessage
	fail map[string]error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.fail[msg.To]
}

func TestEmailChannel_DeliversToEveryRecipient(t *testing.T) {
	boom := errors.New("mailbox full")
	sender := &recordingSender{fail: map[string]error{"b@no2forms.com": boom}}
	ch := NewEmailChannel(sender, []string{" a@no2forms.com ", "", "b@no2forms.com"})
	if ch == nil {
		t.Fatal("expected channel")
	}

	rec := booking.Record{ID: "b-1", Email: "jane@example.com", Time: "Thu 3pm", CreatedKey: "thu3pm"}
	err := ch.Deliver(context.Background(), Notification{Record: rec, Summary: BuildSummary(rec, "")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined recipient error, got %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "a@no2forms.com" || msg.ReplyTo != "jane@example.com" {
		t.Errorf("unexpected addressing: %+v", msg)
	}
	if msg.Subject != "New no2forms booking" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if msg.Tags["booking_id"] != "b-1" || msg.Tags["canonical_key"] != "thu3pm" || msg.Tags["kind"] != "booking" {
		t.Errorf("unexpected tags %v", msg.Tags)
	}
}

func TestNewEmailChannel_Unconfigured(t *testing.T) {
	if NewEmailChannel(nil, []string{"a@no2forms.com"}) != nil {
		t.Error("expected nil channel without sender")
	}
	if NewEmailChannel(&recordingSender{}, []string{" "}) != nil {
		t.Error("expected nil channel without recipients")
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, SESConfig{FromEmail: "bookings@no2forms.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "ops@no2forms.com",
		ReplyTo: "jane@example.com",
		Subject: "New no2forms booking",
		Body:    "• Email: jane@example.com",
		Tags:    map[string]string{"kind": "booking", "canonical_key": "2025-06-12t15:00", "booking_id": ""},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags := api.input.EmailTags
	if len(tags) != 2 {
		t.Fatalf("expected empty tag values to be dropped, got %d tags", len(tags))
	}
	if aws.ToString(tags[0].Name) != "canonical_key" || aws.ToString(tags[0].Value) != "2025-06-12t15_00" {
		t.Errorf("unexpected first tag %s=%s", aws.ToString(tags[0].Name), aws.ToString(tags[0].Value))
	}
	if aws.ToString(tags[1].Name) != "kind" || aws.ToString(tags[1].Value) != "booking" {
		t.Errorf("unexpected second tag %s=%s", aws.ToString(tags[1].Name), aws.ToString(tags[1].Value))
	}
	if got := aws.ToString(api.input.FromEmailAddress); got != "no2forms <bookings@no2forms.com>" {
		t.Errorf("unexpected from %q", got)
	}
	if len(api.input.ReplyToAddresses) != 1 || api.input.ReplyToAddresses[0] != "jane@example.com" {
		t.Errorf("unexpected reply-to %v", api.input.ReplyToAddresses)
	}
	if api.input.Content.Simple.Body.Html != nil {
		t.Error("expected text-only body")
	}

	api.err = errors.New("throttled")
	if err := sender.Send(context.Background(), EmailMessage{To: "ops@no2forms.com"}); err == nil {
		t.Error("expected SES error to propagate")
	}
}
