package main

import (
	"fmt"
	"io"
	"strings"
)

// terminalView implements submit.View by printing to w. Links are made
// absolute against the server URL so they can be opened directly.
type terminalView struct {
	w       io.Writer
	baseURL string

	script     string
	scriptLink string
	audioLink  string
	audioShown bool
}

func newTerminalView(w io.Writer, baseURL string) *terminalView {
	return &terminalView{w: w, baseURL: strings.TrimRight(baseURL, "/")}
}

// SetSubmitEnabled is a no-op; the command submits once.
func (v *terminalView) SetSubmitEnabled(bool) {}

func (v *terminalView) SetResultVisible(visible bool) {
	if !visible {
		return
	}
	fmt.Fprintf(v.w, "\n%s\n\n", strings.TrimRight(v.script, "\n"))
	fmt.Fprintf(v.w, "Script: %s\n", v.scriptLink)
	if v.audioShown {
		fmt.Fprintf(v.w, "Audio:  %s\n", v.audioLink)
	}
}

func (v *terminalView) SetStatus(text string) {
	fmt.Fprintln(v.w, text)
}

func (v *terminalView) SetScript(text string) {
	v.script = text
}

func (v *terminalView) SetScriptLink(href string) {
	v.scriptLink = v.baseURL + href
}

func (v *terminalView) SetAudioLink(href string, visible bool) {
	v.audioLink = v.baseURL + href
	v.audioShown = visible
}
