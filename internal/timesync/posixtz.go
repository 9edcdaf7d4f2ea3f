package timesync

import (
	"fmt"
	"strings"
	"time"
)

// Rule is a parsed POSIX timezone rule such as "EST5EDT,M3.2.0,M11.1.0".
// Offsets are stored in seconds east of UTC (the opposite sign convention
// of the rule text, which counts west as positive).
type Rule struct {
	stdName string
	stdOff  int
	dstName string
	dstOff  int
	start   *transition
	end     *transition
}

// transition is one DST boundary. Form 'M' is month.week.weekday, 'J' is a
// Julian day that never counts Feb 29, 'n' is a zero-based day that does.
type transition struct {
	form   byte
	month  int
	week   int
	day    int
	julian int
	secs   int
}

const defaultTransitionSecs = 2 * 3600

// ParseRule parses a POSIX TZ rule string. A rule without a DST part
// denotes permanent standard time.
func ParseRule(s string) (Rule, error) {
	s = strings.TrimSpace(s)
	p := &parser{in: s}

	stdName, err := p.name()
	if err != nil {
		return Rule{}, fmt.Errorf("tz rule %q: std name: %w", s, err)
	}
	stdOff, err := p.offset()
	if err != nil {
		return Rule{}, fmt.Errorf("tz rule %q: std offset: %w", s, err)
	}

	r := Rule{stdName: stdName, stdOff: -stdOff}
	if p.done() {
		return r, nil
	}

	dstName, err := p.name()
	if err != nil {
		return Rule{}, fmt.Errorf("tz rule %q: dst name: %w", s, err)
	}
	r.dstName = dstName
	// DST defaults to one hour ahead of standard.
	r.dstOff = r.stdOff + 3600
	if !p.done() && p.peek() != ',' {
		dstOff, err := p.offset()
		if err != nil {
			return Rule{}, fmt.Errorf("tz rule %q: dst offset: %w", s, err)
		}
		r.dstOff = -dstOff
	}

	if p.done() {
		return Rule{}, fmt.Errorf("tz rule %q: dst named but transition dates missing", s)
	}
	if err := p.expect(','); err != nil {
		return Rule{}, fmt.Errorf("tz rule %q: %w", s, err)
	}
	start, err := p.transition()
	if err != nil {
		return Rule{}, fmt.Errorf("tz rule %q: start: %w", s, err)
	}
	if err := p.expect(','); err != nil {
		return Rule{}, fmt.Errorf("tz rule %q: %w", s, err)
	}
	end, err := p.transition()
	if err != nil {
		return Rule{}, fmt.Errorf("tz rule %q: end: %w", s, err)
	}
	if !p.done() {
		return Rule{}, fmt.Errorf("tz rule %q: trailing input %q", s, p.rest())
	}

	r.start = start
	r.end = end
	return r, nil
}

// Localize converts a UTC instant to wall-clock time under the rule.
func (r Rule) Localize(t time.Time) time.Time {
	t = t.UTC()
	if r.start == nil || r.end == nil {
		return t.In(time.FixedZone(r.stdName, r.stdOff))
	}

	// The start rule's time-of-day is interpreted in standard time and the
	// end rule's in DST, per POSIX.
	year := t.Year()
	startUTC := r.start.wall(year).Add(-time.Duration(r.stdOff) * time.Second)
	endUTC := r.end.wall(year).Add(-time.Duration(r.dstOff) * time.Second)

	var dst bool
	if startUTC.Before(endUTC) {
		dst = !t.Before(startUTC) && t.Before(endUTC)
	} else {
		// Southern hemisphere: DST spans the year boundary.
		dst = !t.Before(startUTC) || t.Before(endUTC)
	}

	if dst {
		return t.In(time.FixedZone(r.dstName, r.dstOff))
	}
	return t.In(time.FixedZone(r.stdName, r.stdOff))
}

// wall returns the transition's wall-clock instant for the given year,
// materialized in UTC so calendar math stays in one location.
func (tr transition) wall(year int) time.Time {
	var d time.Time
	switch tr.form {
	case 'M':
		d = nthWeekday(year, time.Month(tr.month), tr.week, time.Weekday(tr.day))
	case 'J':
		d = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, tr.julian-1)
		if isLeap(year) && tr.julian >= 60 {
			d = d.AddDate(0, 0, 1)
		}
	default: // 'n'
		d = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, tr.julian)
	}
	return d.Add(time.Duration(tr.secs) * time.Second)
}

// nthWeekday returns the w-th (1..5, 5 meaning last) weekday of the month.
func nthWeekday(year int, month time.Month, week int, day time.Weekday) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	shift := (int(day) - int(first.Weekday()) + 7) % 7
	d := first.AddDate(0, 0, shift+(week-1)*7)
	for d.Month() != month {
		d = d.AddDate(0, 0, -7)
	}
	return d
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

type parser struct {
	in  string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.in) }

func (p *parser) peek() byte { return p.in[p.pos] }

func (p *parser) rest() string { return p.in[p.pos:] }

func (p *parser) expect(c byte) error {
	if p.done() || p.in[p.pos] != c {
		return fmt.Errorf("expected %q at position %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) name() (string, error) {
	if p.done() {
		return "", fmt.Errorf("unexpected end of input")
	}
	if p.peek() == '<' {
		end := strings.IndexByte(p.rest(), '>')
		if end < 0 {
			return "", fmt.Errorf("unterminated quoted name")
		}
		name := p.in[p.pos+1 : p.pos+end]
		p.pos += end + 1
		return name, nil
	}
	start := p.pos
	for !p.done() && isAlpha(p.peek()) {
		p.pos++
	}
	if p.pos-start < 3 {
		return "", fmt.Errorf("name must be at least 3 letters")
	}
	return p.in[start:p.pos], nil
}

// offset parses [+|-]hh[:mm[:ss]] and returns seconds in the rule's own
// sign convention (west positive).
func (p *parser) offset() (int, error) {
	sign := 1
	if !p.done() && (p.peek() == '+' || p.peek() == '-') {
		if p.peek() == '-' {
			sign = -1
		}
		p.pos++
	}
	h, err := p.number(0, 24)
	if err != nil {
		return 0, err
	}
	secs := h * 3600
	if !p.done() && p.peek() == ':' {
		p.pos++
		m, err := p.number(0, 59)
		if err != nil {
			return 0, err
		}
		secs += m * 60
		if !p.done() && p.peek() == ':' {
			p.pos++
			s, err := p.number(0, 59)
			if err != nil {
				return 0, err
			}
			secs += s
		}
	}
	return sign * secs, nil
}

func (p *parser) transition() (*transition, error) {
	if p.done() {
		return nil, fmt.Errorf("unexpected end of input")
	}
	tr := &transition{secs: defaultTransitionSecs}
	switch p.peek() {
	case 'M':
		p.pos++
		tr.form = 'M'
		m, err := p.number(1, 12)
		if err != nil {
			return nil, fmt.Errorf("month: %w", err)
		}
		if err := p.expect('.'); err != nil {
			return nil, err
		}
		w, err := p.number(1, 5)
		if err != nil {
			return nil, fmt.Errorf("week: %w", err)
		}
		if err := p.expect('.'); err != nil {
			return nil, err
		}
		d, err := p.number(0, 6)
		if err != nil {
			return nil, fmt.Errorf("weekday: %w", err)
		}
		tr.month, tr.week, tr.day = m, w, d
	case 'J':
		p.pos++
		tr.form = 'J'
		j, err := p.number(1, 365)
		if err != nil {
			return nil, fmt.Errorf("julian day: %w", err)
		}
		tr.julian = j
	default:
		tr.form = 'n'
		j, err := p.number(0, 365)
		if err != nil {
			return nil, fmt.Errorf("day: %w", err)
		}
		tr.julian = j
	}

	if !p.done() && p.peek() == '/' {
		p.pos++
		sign := 1
		if !p.done() && (p.peek() == '+' || p.peek() == '-') {
			if p.peek() == '-' {
				sign = -1
			}
			p.pos++
		}
		h, err := p.number(0, 167)
		if err != nil {
			return nil, fmt.Errorf("transition time: %w", err)
		}
		secs := h * 3600
		if !p.done() && p.peek() == ':' {
			p.pos++
			m, err := p.number(0, 59)
			if err != nil {
				return nil, err
			}
			secs += m * 60
			if !p.done() && p.peek() == ':' {
				p.pos++
				s, err := p.number(0, 59)
				if err != nil {
					return nil, err
				}
				secs += s
			}
		}
		tr.secs = sign * secs
	}
	return tr, nil
}

func (p *parser) number(min, max int) (int, error) {
	start := p.pos
	for !p.done() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected digits at position %d", start)
	}
	n := 0
	for _, c := range []byte(p.in[start:p.pos]) {
		n = n*10 + int(c-'0')
	}
	if n < min || n > max {
		return 0, fmt.Errorf("value %d out of range [%d, %d]", n, min, max)
	}
	return n, nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
