package rod

import (
	"context"
	"time"

	"github.com/fwojciec/billfetch"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var _ billfetch.Element = (*Element)(nil)

// Element is an element of the active page. Each action is bounded by the
// page timeout.
type Element struct {
	el      *rod.Element
	timeout time.Duration
}

func wrapElements(els rod.Elements, timeout time.Duration) []billfetch.Element {
	out := make([]billfetch.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el, timeout: timeout})
	}
	return out
}

func (e *Element) bound() (*rod.Element, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(e.el.GetContext(), e.timeout)
	return e.el.Context(ctx), cancel
}

// Attribute returns the attribute value, or "" when absent.
func (e *Element) Attribute(name string) (string, error) {
	el, cancel := e.bound()
	defer cancel()

	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// Text returns the rendered text of the element.
func (e *Element) Text() (string, error) {
	el, cancel := e.bound()
	defer cancel()
	return el.Text()
}

// Visible reports whether the element is rendered and visible.
func (e *Element) Visible() (bool, error) {
	el, cancel := e.bound()
	defer cancel()
	return el.Visible()
}

// Click scrolls to the element and left-clicks it.
func (e *Element) Click() error {
	el, cancel := e.bound()
	defer cancel()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Input replaces the element's value with text.
func (e *Element) Input(text string) error {
	el, cancel := e.bound()
	defer cancel()

	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}
