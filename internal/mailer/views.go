package mailer

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

type view struct {
	AppName string
	Link    string
	Email   string
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!doctype html><html><head><meta charset="utf-8"><title>`, templ.EscapeString(title), `</title></head><body>`,
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</body></html>`)
	})
}

func confirmView(v view) templ.Component {
	return layout("Confirm your "+v.AppName+" account", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<p>Welcome to `, templ.EscapeString(v.AppName), `.</p>`,
			`<p>Confirm your account by following <a href="`, href(v.Link), `">this link</a>.</p>`,
			`<p>If you did not sign up, ignore this message.</p>`,
		)
	}))
}

func resetPasswordView(v view) templ.Component {
	return layout("Reset your "+v.AppName+" password", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<p>Someone asked to reset the `, templ.EscapeString(v.AppName), ` password for `, templ.EscapeString(v.Email), `.</p>`,
			`<p><a href="`, href(v.Link), `">Choose a new password</a></p>`,
			`<p>If it was not you, ignore this message. Your password stays the same.</p>`,
		)
	}))
}

func changeEmailView(v view) templ.Component {
	return layout("Confirm your new "+v.AppName+" email address", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return write(w,
			`<p>Confirm that `, templ.EscapeString(v.Email), ` should become the address of your `, templ.EscapeString(v.AppName), ` account.</p>`,
			`<p><a href="`, href(v.Link), `">Confirm new address</a></p>`,
		)
	}))
}

// href sanitizes link the way templ does for href attributes.
func href(link string) string {
	return templ.EscapeString(string(templ.URL(link)))
}

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}
