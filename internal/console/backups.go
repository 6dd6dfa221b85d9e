package console

import (
	"context"
	"errors"
	"fmt"

	"finman/internal/core"
)

func (c *Console) backup(ctx context.Context) error {
	c.header("Backup Data")
	f, err := c.svc.Backups.Backup(ctx, c.session)
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	c.success("Backup created successfully: " + f.Path)
	return nil
}

func (c *Console) restore(ctx context.Context) error {
	c.header("Restore Data")
	files, err := c.svc.Backups.ListBackups(ctx, c.session)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		c.println(c.styles.muted.Render("No backups found."))
		return nil
	}

	c.println("\nAvailable backups:")
	for i, f := range files {
		c.printf("%d. %s (%s)\n", i+1, f.Name, f.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	n, err := ask(c, "\nSelect backup to restore (0 to cancel): ", parseChoice(0, len(files)))
	if err != nil || n == 0 {
		return err
	}

	c.println(c.styles.warn.Render("\nWarning: This will replace your current data with the backup."))
	yes, err := c.confirm("Are you sure? (y/n): ")
	if err != nil {
		return err
	}
	if !yes {
		c.println("Restore cancelled.")
		return nil
	}

	if err := c.svc.Backups.Restore(ctx, c.session, files[n-1].Path); err != nil {
		return err
	}
	c.success("Data restored successfully!")

	// the restored data may predate this account
	sess, err := c.svc.Auth.Refresh(ctx, c.session)
	if errors.Is(err, core.ErrNotFound) {
		c.session = c.svc.Auth.Logout(ctx, c.session)
		c.println("Your account is not part of the restored data. Please log in again.")
		return nil
	}
	if err != nil {
		return err
	}
	c.session = sess
	return nil
}
