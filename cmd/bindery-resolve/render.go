package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
)

var (
	headerColor   = color.New(color.Bold)
	okColor       = color.New(color.FgGreen, color.Bold)
	failColor     = color.New(color.FgRed, color.Bold)
	warnColor     = color.New(color.FgYellow)
	providerColor = color.New(color.FgCyan)
	dimColor      = color.New(color.Faint)
)

// render writes a resolution outcome for humans.
func render(w io.Writer, st resolvev1.ResolutionStatus) {
	switch st.Phase {
	case resolvev1.ResolutionPhaseResolved:
		okColor.Fprintln(w, "✔ resolved")
	case resolvev1.ResolutionPhaseCancelled:
		warnColor.Fprintln(w, "⚠ resolution cancelled")
	default:
		failColor.Fprintln(w, "✘ "+st.Message)
	}

	if len(st.Wires) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Wires:")
		for _, wire := range st.Wires {
			fmt.Fprintf(w, "  %s -> %s  ", wire.Requirer, providerColor.Sprint(wire.Provider))
			dimColor.Fprintf(w, "%s %s\n", wire.Namespace, wire.Requirement)
		}
	}
	if len(st.RunOrder) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Run order:")
		for i, r := range st.RunOrder {
			fmt.Fprintf(w, "  %d. %s\n", i+1, r)
		}
	}
	if len(st.CausalChain) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Why:")
		for i, l := range st.CausalChain {
			verb := "needed for"
			if i == 0 {
				verb = "missing"
			}
			fmt.Fprintf(w, "  %s %s", verb, failColor.Sprint(l.Requirement))
			if l.Resource != "" {
				fmt.Fprintf(w, " of %s", l.Resource)
			}
			fmt.Fprintln(w)
		}
	}
	if len(st.UnresolvedOptional) > 0 {
		fmt.Fprintln(w)
		warnColor.Fprintln(w, "Optional requirements left unwired:")
		for _, r := range st.UnresolvedOptional {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}
	if st.Stats != nil {
		fmt.Fprintln(w)
		dimColor.Fprintf(w, "%d steps, %d backtracks, %d choice points, %d prompts\n",
			st.Stats.Steps, st.Stats.Backtracks, st.Stats.ChoicePoints, st.Stats.CallbackInvocations)
	}
}
