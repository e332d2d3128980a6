// Package pdfcpu verifies downloaded documents are structurally valid PDFs.
package pdfcpu

import (
	"bytes"
	"sync"

	"github.com/fwojciec/billfetch"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var _ billfetch.Verifier = (*Verifier)(nil)

var disableConfigDir sync.Once

// Verifier accepts payloads that start with the PDF signature and pass
// relaxed pdfcpu validation.
type Verifier struct {
	conf *model.Configuration
}

// NewVerifier creates a new Verifier. pdfcpu's on-disk configuration
// directory is never used.
func NewVerifier() *Verifier {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Verifier{conf: conf}
}

// Verify implements billfetch.Verifier.
func (v *Verifier) Verify(p *billfetch.Payload) error {
	if !bytes.HasPrefix(p.Body, []byte("%PDF")) {
		return billfetch.Errorf(billfetch.EVERIFY, "payload from %s has no PDF signature (content type %q)", p.URL, p.ContentType)
	}
	if err := api.Validate(bytes.NewReader(p.Body), v.conf); err != nil {
		return billfetch.Errorf(billfetch.EVERIFY, "payload from %s is not a valid PDF: %v", p.URL, err)
	}
	return nil
}
