package console

import (
	"context"
	"errors"

	"finman/internal/core"
)

func (c *Console) register(ctx context.Context) error {
	c.header("Register")
	for {
		username, err := c.line("Enter username (min 3 characters): ")
		if err != nil {
			return err
		}
		pass, err := c.password("Enter password (min 6 characters): ")
		if err != nil {
			return err
		}
		confirm, err := c.password("Confirm password: ")
		if err != nil {
			return err
		}

		_, err = c.svc.Auth.Register(ctx, username, pass, confirm)
		switch {
		case err == nil:
			c.success("Registration successful! You can now log in.")
			return nil
		case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrDuplicateUsername):
			c.println(c.styles.bad.Render(userMessage(err)))
		default:
			return err
		}
	}
}

func (c *Console) login(ctx context.Context) error {
	c.header("Login")
	username, err := c.line("Username: ")
	if err != nil {
		return err
	}
	pass, err := c.password("Password: ")
	if err != nil {
		return err
	}

	sess, err := c.svc.Auth.Login(ctx, username, pass)
	if err != nil {
		return err
	}
	c.session = sess
	c.success("Welcome back, " + sess.Username + "!")
	return nil
}
