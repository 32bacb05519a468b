package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
	"github.com/oksasatya/rbac-dashboard/pkg/mailer"
)

type outcome int

const (
	ack outcome = iota
	retry
	drop
)

// worker delivers jobs that were rendered before they were queued.
type worker struct {
	Transport mailer.Transport
	Logger    logrus.FieldLogger
	Timeout   time.Duration
}

// handle decides the fate of one delivery. A failed send is retried once
// through the broker; a second failure or a malformed job is dropped.
func (w *worker) handle(ctx context.Context, body []byte, redelivered bool) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.Logger.WithError(err).Error("bad message")
		return drop
	}
	if job.To == "" || job.Subject == "" || (job.Text == "" && job.HTML == "") {
		w.Logger.WithField("type", job.Type).Error("incomplete email job")
		return drop
	}

	c, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()
	if err := w.Transport.Send(c, job.Message()); err != nil {
		log := w.Logger.WithError(err).WithFields(logrus.Fields{"type": job.Type, "to": job.To})
		if redelivered {
			log.Error("send failed twice; dropping")
			return drop
		}
		log.Warn("send failed; requeueing")
		return retry
	}
	helpers.LogInfo(w.Logger, "email sent", logrus.Fields{"type": job.Type, "to": job.To})
	return ack
}

type consumerCanceler interface {
	Cancel(consumer string, noWait bool) error
}

// drain cancels the email consumer and waits for in-flight deliveries.
// It reports false when done is not closed within timeout.
func drain(ch consumerCanceler, done <-chan struct{}, timeout time.Duration) bool {
	_ = ch.Cancel(consumerTag, false)
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
