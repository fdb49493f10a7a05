package availability

// GenerateSlots cuts windows into candidate slots after removing the breaks.
// The cursor advances by SlotInterval, and a slot is only emitted while the
// slot plus its trailing buffer still fits in the window.
func GenerateSlots(windows []Interval, breaks []AvailabilityBreak, cfg SlotConfiguration) ([]Slot, error) {
	if !cfg.usable() {
		return nil, nil
	}

	exclusions := make([]Interval, 0, len(breaks))
	for _, b := range breaks {
		iv, err := parseInterval(b.StartTime, b.EndTime)
		if err != nil {
			return nil, err
		}
		exclusions = append(exclusions, iv)
	}

	var slots []Slot
	for _, w := range SubtractAll(windows, exclusions) {
		for cur := w.Start; cur+Clock(cfg.DefaultDuration+cfg.BufferTime) <= w.End; cur += Clock(cfg.SlotInterval) {
			end := cur + Clock(cfg.DefaultDuration)
			slots = append(slots, Slot{
				StartTime:   cur.String(),
				EndTime:     end.String(),
				Duration:    cfg.DefaultDuration,
				IsAvailable: true,
			})
		}
	}
	return slots, nil
}
