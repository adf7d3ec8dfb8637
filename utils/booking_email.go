package utils

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"mime"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"qr-booking-backend/config"
	"qr-booking-backend/logger"
	"qr-booking-backend/models"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

const (
	customerSubject = "Confirmation de réservation"
	agencySubject   = "Nouvelle réservation"
)

// Email is a rendered multipart message.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type bookingEmailData struct {
	Booking       *models.Booking
	FullName      string
	DateLabel     string
	ActivityTitle string
	CategoryTitle string
	UnitPrice     string
	AdultsTotal   string
	ChildrenTotal string
	AdultRate     string
	ChildRate     string
	TotalPrice    string
	TransferLabel string
	Source        string
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newBookingEmailData(b *models.Booking) bookingEmailData {
	// The form charges one rate per head; the total is split evenly.
	unit := 0.0
	if heads := b.Adults + b.Children; heads > 0 {
		unit = b.TotalPrice / float64(heads)
	}
	transfer := "Non"
	if b.WithTransfer {
		transfer = "Oui"
	}
	return bookingEmailData{
		Booking:       b,
		FullName:      strings.TrimSpace(b.FirstName + " " + b.LastName),
		DateLabel:     time.Time(b.Date).Format("02/01/2006"),
		ActivityTitle: deref(b.ActivityTitle),
		CategoryTitle: deref(b.CategoryTitle),
		UnitPrice:     formatAmount(unit),
		AdultsTotal:   formatAmount(unit * float64(b.Adults)),
		ChildrenTotal: formatAmount(unit * float64(b.Children)),
		AdultRate:     formatAmount(b.AdultPrice),
		ChildRate:     formatAmount(b.ChildPrice),
		TotalPrice:    formatAmount(b.TotalPrice),
		TransferLabel: transfer,
		Source:        deref(b.Source),
	}
}

func render(name string, to, subject string, data bookingEmailData) (Email, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Email{}, fmt.Errorf("render %s.html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Email{}, fmt.Errorf("render %s.txt: %w", name, err)
	}
	return Email{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

func RenderCustomerConfirmation(b *models.Booking) (Email, error) {
	return render("customer_confirmation", b.Email, customerSubject, newBookingEmailData(b))
}

func RenderAgencyNotification(b *models.Booking, agencyAddress string) (Email, error) {
	subject := fmt.Sprintf("%s %s", agencySubject, b.Reference)
	return render("agency_notification", agencyAddress, subject, newBookingEmailData(b))
}

// BuildMessage assembles a multipart/alternative message with a text and an
// HTML part.
func BuildMessage(from string, e Email) []byte {
	boundary := "----=_QR_BOOKING_BOUNDARY"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", e.To))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject)))
	sb.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(e.Text + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(e.HTML + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(sb.String())
}

// BookingMailer renders booking emails and hands them to an EmailSender.
type BookingMailer struct {
	Sender        EmailSender
	AgencyAddress string
}

func NewBookingMailer(cfg config.MailConfig, log *logger.Logger) *BookingMailer {
	return &BookingMailer{
		Sender:        NewEmailSender(cfg, log),
		AgencyAddress: cfg.AgencyAddress,
	}
}

func (m *BookingMailer) SendCustomerConfirmation(ctx context.Context, b *models.Booking) error {
	e, err := RenderCustomerConfirmation(b)
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, e)
}

func (m *BookingMailer) SendAgencyNotification(ctx context.Context, b *models.Booking) error {
	if m.AgencyAddress == "" {
		return nil
	}
	e, err := RenderAgencyNotification(b, m.AgencyAddress)
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, e)
}
