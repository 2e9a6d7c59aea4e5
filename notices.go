package client

import "time"

// Level is the severity of a Notice.
type Level int

const (
	Success Level = iota + 1
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is the single user-visible signal for the outcome of an action or a
// background refresh. Every failure produces one.
type Notice struct {
	Level   Level
	Message string
	Err     error
	At      time.Time
}

// notify queues n without blocking; when the buffer is full the oldest notice
// is discarded.
func (c *Client) notify(level Level, msg string, err error) {
	n := Notice{Level: level, Message: msg, Err: err, At: time.Now()}
	noticesTotal.WithLabelValues(level.String()).Inc()

	ev := c.log.Info()
	switch level {
	case Warning:
		ev = c.log.Warn().Err(err)
	case Error:
		ev = c.log.Error().Err(err)
	}
	ev.Str("level", level.String()).Msg(msg)

	c.noticeMu.Lock()
	defer c.noticeMu.Unlock()
	for {
		select {
		case c.notices <- n:
			return
		default:
		}
		select {
		case <-c.notices:
			noticesDroppedTotal.Inc()
		default:
		}
	}
}
