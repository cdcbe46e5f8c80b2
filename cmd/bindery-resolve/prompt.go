package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// promptCallback asks the user to pick a provider when the resolver cannot
// decide. Interrupting the prompt cancels the session.
type promptCallback struct {
	ask func(p survey.Prompt, response any, opts ...survey.AskOpt) error
}

func newPromptCallback() *promptCallback {
	return &promptCallback{ask: survey.AskOne}
}

func (p *promptCallback) Select(ctx context.Context, req *resource.Requirement, _, candidates []*resource.Capability) ([]*resource.Capability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	options := make([]string, len(candidates))
	for i, c := range candidates {
		options[i] = describeCandidate(c)
	}
	requirer := "root"
	if r := req.Resource(); r != nil && !r.IsInitial() {
		requirer = r.String()
	}

	var idx int
	prompt := &survey.Select{
		Message: fmt.Sprintf("Several providers satisfy %s (needed by %s). Select one:", req, requirer),
		Options: options,
	}
	if err := p.ask(prompt, &idx); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return nil, resolver.ErrSelectionCancelled
		}
		return nil, err
	}
	return []*resource.Capability{candidates[idx]}, nil
}

func describeCandidate(c *resource.Capability) string {
	if r := c.Resource(); r != nil {
		return fmt.Sprintf("%s [%s]", r, c.Attributes())
	}
	return c.Attributes().String()
}
