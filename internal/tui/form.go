package tui

import (
	"strings"

	"edubot/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
)

type formStep int

const (
	stepClass formStep = iota
	stepSubject
	stepTopic
)

// threadForm walks class, then subject, then topic. Topics come from the
// gateway; a typed topic wins over the highlighted one.
type threadForm struct {
	step       formStep
	classIdx   int
	subjectIdx int
	topics     []string
	topicIdx   int
	loading    bool
	custom     textinput.Model
}

func newThreadForm() threadForm {
	ti := textinput.New()
	ti.Placeholder = "or type a topic"
	ti.CharLimit = 120
	return threadForm{custom: ti}
}

func (f threadForm) class() string   { return domain.Classes()[f.classIdx] }
func (f threadForm) subject() string { return domain.Subjects[f.subjectIdx] }

func (f threadForm) topic() string {
	if v := strings.TrimSpace(f.custom.Value()); v != "" {
		return v
	}
	if f.topicIdx < len(f.topics) {
		return f.topics[f.topicIdx]
	}
	return ""
}

func (f threadForm) value() domain.ThreadForm {
	return domain.ThreadForm{Class: f.class(), Subject: f.subject(), Topic: f.topic()}
}

// move shifts the highlighted option of the current step by delta.
func (f *threadForm) move(delta int) {
	switch f.step {
	case stepClass:
		f.classIdx = wrap(f.classIdx+delta, len(domain.Classes()))
	case stepSubject:
		f.subjectIdx = wrap(f.subjectIdx+delta, len(domain.Subjects))
	case stepTopic:
		if len(f.topics) > 0 {
			f.topicIdx = wrap(f.topicIdx+delta, len(f.topics))
		}
	}
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
