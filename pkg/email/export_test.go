package email

import "time"

var SanitizeFilename = sanitizeFilename

func (d *DevSender) SetClock(now func() time.Time) { d.now = now }
