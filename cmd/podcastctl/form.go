package main

import (
	"context"
	"errors"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

var styles = []string{"conversational", "casual", "educational", "storytelling", "playful"}

var errAborted = errors.New("aborted")

// flagForm implements submit.Form from command-line flags and prompts.
type flagForm struct {
	topic     string
	style     string
	duration  string
	model     string
	skipAudio bool
}

func (f *flagForm) Topic() string    { return f.topic }
func (f *flagForm) Style() string    { return f.style }
func (f *flagForm) Duration() string { return f.duration }
func (f *flagForm) Model() string    { return f.model }
func (f *flagForm) SkipAudio() bool  { return f.skipAudio }

// prompter asks the user for values.
type prompter interface {
	Input(message, def string, required bool) (string, error)
	Select(message string, options []string, def string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// ask fills the form interactively, keeping flag values as defaults.
func (f *flagForm) ask(ctx context.Context, p prompter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	topic, err := p.Input("Enter your podcast topic:", f.topic, true)
	if err != nil {
		return err
	}
	f.topic = strings.TrimSpace(topic)

	if f.style, err = p.Select("Style:", styles, f.style); err != nil {
		return err
	}
	if f.duration, err = p.Input("Duration (minutes):", f.duration, false); err != nil {
		return err
	}
	if f.skipAudio, err = p.Confirm("Skip audio?", f.skipAudio); err != nil {
		return err
	}
	return nil
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, def string, required bool) (string, error) {
	var out string
	var opts []survey.AskOpt
	if required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if err := survey.AskOne(&survey.Input{Message: message, Default: def}, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	prompt := &survey.Select{Message: message, Options: options}
	for _, o := range options {
		if o == def {
			prompt.Default = def
		}
	}
	var out string
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
