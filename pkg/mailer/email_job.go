package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// The body is rendered before enqueueing, so the worker only delivers.
type EmailJob struct {
	Type    string `json:"type,omitempty"` // verify_email, reset_password, reset_success
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

func (j EmailJob) Message() Message {
	return Message{Type: j.Type, To: j.To, Subject: j.Subject, Text: j.Text, HTML: j.HTML}
}

func jobFromMessage(m Message) EmailJob {
	return EmailJob{Type: m.Type, To: m.To, Subject: m.Subject, Text: m.Text, HTML: m.HTML}
}
