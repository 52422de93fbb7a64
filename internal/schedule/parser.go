package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParsedTask is the structured draft produced from a quick-add string,
// ready to become a ScheduledTask or RetiredTask row.
type ParsedTask struct {
	Name          string     `json:"name"`
	Duration      int        `json:"duration"` // minutes; 0 when an explicit range is set
	BreakDuration int        `json:"break_duration"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	IsCritical    bool       `json:"is_critical"`
	IsBackburner  bool       `json:"is_backburner"`
	IsFlexible    bool       `json:"is_flexible"`
	ToSink        bool       `json:"to_sink"`
	IsTimeOff     bool       `json:"is_time_off"`
	EnergyCost    int        `json:"energy_cost"`
}

// ParsedInjection is a quick-add draft with the time range kept as
// clock offsets, so the caller can resolve it onto whichever day owns
// the target gap.
type ParsedInjection struct {
	Name          string `json:"name"`
	Duration      int    `json:"duration"`
	BreakDuration int    `json:"break_duration"`
	StartMinutes  *int   `json:"start_minutes"` // minutes from local midnight
	EndMinutes    *int   `json:"end_minutes"`
	IsCritical    bool   `json:"is_critical"`
	IsBackburner  bool   `json:"is_backburner"`
	IsFlexible    bool   `json:"is_flexible"`
	ToSink        bool   `json:"to_sink"`
	EnergyCost    int    `json:"energy_cost"`
}

var (
	timeRangeRe = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*-\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*$`)
	durationRe  = regexp.MustCompile(`^(.*?\S)\s+(\d+)(?:\s+(\d+))?$`)
	sinkRe      = regexp.MustCompile(`(?i)\s+sink\s*$`)
	fixedRe     = regexp.MustCompile(`(?i)\s+fixed\s*$`)
	timeOffRe   = regexp.MustCompile(`(?i)^time\s*off\b`)
	injectRe    = regexp.MustCompile(`(?i)^inject\s+"([^"]+)"\s*(.*)$`)
)

// ParseQuickAddInput turns free text into a draft task. A nil, nil return
// means the text matched no grammar rule; the caller treats it as a no-op.
//
// Markers are stripped in a fixed order (critical suffix, backburner prefix,
// sink suffix, fixed suffix) before the duration / time-range match, so
// "Report 60 !" parses as name "Report", duration 60, critical.
func ParseQuickAddInput(raw string, selectedDay time.Time) (*ParsedTask, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}

	// "time off 1pm - 2pm": all-day-blocking fixed block, zero energy,
	// never critical or backburner.
	if timeOffRe.MatchString(s) {
		rest := timeOffRe.ReplaceAllString(s, "")
		start, end, rem, ok := extractTimeRange(rest, selectedDay)
		if !ok || strings.TrimSpace(rem) != "" {
			return nil, nil
		}
		return &ParsedTask{
			Name:      "Time Off",
			StartTime: &start,
			EndTime:   &end,
			IsTimeOff: true,
		}, nil
	}

	p := &ParsedTask{IsFlexible: true}

	if strings.HasSuffix(s, "!") {
		p.IsCritical = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "!"))
	}
	if strings.HasPrefix(s, "-") {
		p.IsBackburner = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	if sinkRe.MatchString(s) {
		p.ToSink = true
		s = strings.TrimSpace(sinkRe.ReplaceAllString(s, ""))
	}
	if fixedRe.MatchString(s) {
		p.IsFlexible = false
		s = strings.TrimSpace(fixedRe.ReplaceAllString(s, ""))
	}

	if start, end, rem, ok := extractTimeRange(s, selectedDay); ok {
		name := strings.TrimSpace(rem)
		if name == "" {
			return nil, nil
		}
		p.Name = name
		p.StartTime = &start
		p.EndTime = &end
		p.IsFlexible = false
		p.Duration = int(end.Sub(start).Minutes())
	} else if m := durationRe.FindStringSubmatch(s); m != nil {
		p.Name = strings.TrimSpace(m[1])
		p.Duration, _ = strconv.Atoi(m[2])
		if m[3] != "" {
			p.BreakDuration, _ = strconv.Atoi(m[3])
		}
		if p.Duration <= 0 {
			return nil, nil
		}
	} else {
		return nil, nil
	}

	p.EnergyCost = EnergyCost(p.Duration, p.IsCritical, p.IsBackburner, IsMealName(p.Name))
	return p, nil
}

// ParseInjectionCommand parses `inject "Task Name" ...` commands used to
// drop a task into a specific free-time gap. Flag vocabulary matches
// quick-add, but the name is quoted and suffixes follow in grammar order.
func ParseInjectionCommand(raw string) (*ParsedInjection, error) {
	m := injectRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil, nil
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return nil, nil
	}

	p := &ParsedInjection{Name: name, IsFlexible: true}
	rest := strings.TrimSpace(m[2])

	if rm := timeRangeRe.FindStringSubmatch(rest); rm != nil {
		startMin, endMin, ok := clockRange(rm)
		if !ok {
			return nil, nil
		}
		p.StartMinutes = &startMin
		p.EndMinutes = &endMin
		p.IsFlexible = false
		d := endMin - startMin
		if d < 0 {
			d += 24 * 60
		}
		p.Duration = d
		rest = strings.TrimSpace(rest[:len(rest)-len(rm[0])])
	}

	sawDuration := false
	for _, tok := range strings.Fields(rest) {
		switch strings.ToLower(tok) {
		case "!":
			p.IsCritical = true
		case "-":
			p.IsBackburner = true
		case "sink":
			p.ToSink = true
		case "fixed":
			p.IsFlexible = false
		default:
			n, err := strconv.Atoi(tok)
			if err != nil {
				return nil, nil
			}
			if !sawDuration {
				p.Duration = n
				sawDuration = true
			} else {
				p.BreakDuration = n
			}
		}
	}
	if strings.HasSuffix(p.Name, "!") {
		p.IsCritical = true
		p.Name = strings.TrimSpace(strings.TrimSuffix(p.Name, "!"))
	}
	if strings.HasPrefix(p.Name, "-") {
		p.IsBackburner = true
		p.Name = strings.TrimSpace(strings.TrimPrefix(p.Name, "-"))
	}
	if p.Name == "" || p.Duration <= 0 {
		return nil, nil
	}

	p.EnergyCost = EnergyCost(p.Duration, p.IsCritical, p.IsBackburner, IsMealName(p.Name))
	return p, nil
}

// extractTimeRange pulls a trailing "9am - 10:30am" style range off the end
// of s and resolves it onto day. Returns the remainder of s and whether a
// range was found. An end before the start rolls over to the next day.
func extractTimeRange(s string, day time.Time) (start, end time.Time, remainder string, ok bool) {
	m := timeRangeRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, time.Time{}, s, false
	}
	startMin, endMin, valid := clockRange(m)
	if !valid {
		return time.Time{}, time.Time{}, s, false
	}

	start = atMinutes(day, startMin)
	end = atMinutes(day, endMin)
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	remainder = s[:len(s)-len(m[0])]
	return start, end, remainder, true
}

// clockRange resolves the six submatches of timeRangeRe into minutes from
// midnight. A start without a meridiem inherits the end's when that keeps
// the range forward ("9 - 10:30am" means 9:00am).
func clockRange(m []string) (startMin, endMin int, ok bool) {
	sh, _ := strconv.Atoi(m[1])
	sm := 0
	if m[2] != "" {
		sm, _ = strconv.Atoi(m[2])
	}
	eh, _ := strconv.Atoi(m[4])
	em := 0
	if m[5] != "" {
		em, _ = strconv.Atoi(m[5])
	}
	if sh > 23 || eh > 23 || sm > 59 || em > 59 {
		return 0, 0, false
	}

	sMer := strings.ToLower(m[3])
	eMer := strings.ToLower(m[6])

	endMin = toMinutes(eh, em, eMer)

	if sMer == "" && eMer != "" {
		inherited := toMinutes(sh, sm, eMer)
		if inherited <= endMin {
			return inherited, endMin, true
		}
	}
	return toMinutes(sh, sm, sMer), endMin, true
}

func toMinutes(h, m int, meridiem string) int {
	switch meridiem {
	case "pm":
		if h < 12 {
			h += 12
		}
	case "am":
		if h == 12 {
			h = 0
		}
	}
	return h*60 + m
}

func atMinutes(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}
