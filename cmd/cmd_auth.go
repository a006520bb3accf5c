package main

import (
	"fmt"
	"strings"

	"edubot/internal/domain"

	"github.com/spf13/cobra"
)

func (c *cli) signupCmd() *cobra.Command {
	var form domain.SignupForm
	var role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account; an OTP is emailed for verification",
		Example: `  edubot signup --name "Asha Rao" --email asha@school.in \
    --phone +911234567890 --class 8 --accept-terms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			var err error
			if form.Password, err = c.promptPassword(cmd, "Password: "); err != nil {
				return err
			}
			if form.ConfirmPassword, err = c.promptPassword(cmd, "Confirm password: "); err != nil {
				return err
			}
			form.Role = domain.Role(strings.ToUpper(role))

			if err := c.app.auth.Signup(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful! Please check your email for the OTP.")
			fmt.Fprintf(cmd.OutOrStdout(), "Then run: edubot verify --email %s <code>\n", form.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number with country code, e.g. +911234567890")
	cmd.Flags().StringVar(&form.Class, "class", "", "Class (1-10)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "STUDENT or ADMIN")
	cmd.Flags().BoolVar(&form.AcceptTerms, "accept-terms", false, "Accept the terms and conditions")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify [code]",
		Short: "Verify the emailed 6-digit OTP",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			code := ""
			if len(args) == 1 {
				code = args[0]
			} else {
				var err error
				if code, err = c.prompt(cmd, "OTP: "); err != nil {
					return err
				}
			}
			if err := c.app.auth.VerifyOTP(cmd.Context(), email, code); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Email verified. You can now log in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address used at signup")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var form domain.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			var err error
			if form.Password, err = c.promptPassword(cmd, "Password: "); err != nil {
				return err
			}
			p, err := c.app.auth.Login(cmd.Context(), form)
			if err != nil {
				return err
			}

			name := p.Name
			if name == "" {
				name = p.Email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s (%s)\n", name, p.Role)
			if p.Role == domain.RoleAdmin {
				fmt.Fprintln(cmd.OutOrStdout(), "Admin tools: edubot upload, edubot history")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Start studying: edubot chat")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.auth.Current(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Email: %s\n", p.Email)
			if p.Name != "" {
				fmt.Fprintf(out, "Name:  %s\n", p.Name)
			}
			fmt.Fprintf(out, "Role:  %s\n", p.Role)
			if p.Phone != "" {
				fmt.Fprintf(out, "Phone: %s\n", p.Phone)
			}
			return nil
		},
	}
}

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme",
		Short: "Toggle dark mode for the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := c.app.auth.ToggleDarkMode(cmd.Context())
			if err != nil {
				return err
			}
			state := "off"
			if on {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dark mode %s\n", state)
			return nil
		},
	}
}
