package logging

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// OpData collects fields for the completion line of one operation.
type OpData struct {
	mu     sync.Mutex
	fields logrus.Fields
}

// Add records a field to log when the operation ends.
func (d *OpData) Add(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fields[key] = value
}

func (d *OpData) entry(log *logrus.Logger) *logrus.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return log.WithFields(d.fields)
}

// Run logs "<name>.Start", runs fn, then logs "<name>.Complete" or
// "<name>.Error" with fn's fields and the elapsed milliseconds.
func Run(log *logrus.Logger, name string, fn func(*OpData) error) error {
	log.Debugf("%s.Start", name)

	data := &OpData{fields: logrus.Fields{}}
	start := time.Now()
	err := fn(data)
	data.Add("duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		data.entry(log).WithError(err).Errorf("%s.Error", name)
		return err
	}
	data.entry(log).Infof("%s.Complete", name)
	return nil
}
