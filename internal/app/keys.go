package app

// Interactive key bindings.
const (
	keyReload     = 'r' // load a new random style (both slots when interpolating)
	keyKeepColors = 'c' // toggle color preservation
	keyQuit       = 'q'
	keyEscape     = 27
)

// pollInput applies pending trackbar edits, then polls one key event with a
// bounded wait and routes it. Runs on the loop thread: this is the single
// apply point for every control mutation.
func (l *Loop) pollInput() {
	if l.panel != nil {
		l.panel.Poll()
	}

	key := l.presenter.WaitKey(keyWaitMs)
	if key < 0 {
		return
	}

	switch key & 0xff {
	case keyReload:
		l.surface.SelectRandom(0)
		if l.interpolate {
			l.surface.SelectRandom(1)
		}
	case keyKeepColors:
		keep := l.surface.ToggleKeepColors()
		l.logger.WithField("keep_colors", keep).Info("Color preservation toggled")
	case keyQuit, keyEscape:
		l.logger.Info("Quit requested")
		l.state = Stopping
	}
}
