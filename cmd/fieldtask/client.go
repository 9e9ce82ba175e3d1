package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// client es el cliente HTTP mínimo de los comandos contra un tablero ya
// levantado (fieldtask serve).
type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newClientCmds(baseURL, out *string) []*cobra.Command {
	newClient := func() *client {
		return &client{
			BaseURL:   *baseURL,
			OutFormat: *out,
			HTTP: &http.Client{
				Timeout: 30 * time.Second,
				// Los redirects del guard se reportan, no se siguen.
				CheckRedirect: func(*http.Request, []*http.Request) error {
					return http.ErrUseLastResponse
				},
			},
		}
	}

	var loginEmail, loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión contra el credential provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			pass := loginPassword
			if pass == "" {
				var err error
				if pass, err = readPassword("Password: "); err != nil {
					return err
				}
			}

			cl := newClient()
			b, _ := json.Marshal(map[string]string{"email": loginEmail, "password": pass})
			status, body, err := cl.do("POST", "/login", b)
			if err != nil {
				return err
			}
			switch {
			case status == http.StatusConflict && bytes.Contains(body, []byte("PASSWORD_CHANGE_REQUIRED")):
				fmt.Println("El provider exige cambiar la contraseña: fieldtask set-password")
				return nil
			case status/100 != 2:
				return fmt.Errorf("login falló: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email de la cuenta")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (si se omite se pide por stdin)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión local y remota",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := newClient()
			status, body, err := cl.do("POST", "/logout", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("logout falló: status=%d body=%s", status, string(body))
			}
			fmt.Println("ok")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Muestra el usuario de la sesión vigente",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := newClient()
			status, body, err := cl.do("GET", "/api/me", nil)
			if err != nil {
				return err
			}
			if status == http.StatusFound {
				fmt.Println("sin sesión: fieldtask login --email ...")
				return nil
			}
			if status/100 != 2 {
				return fmt.Errorf("whoami falló: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	var newPassword string
	setPasswordCmd := &cobra.Command{
		Use:   "set-password",
		Short: "Completa el cambio de contraseña pendiente",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass := newPassword
			if pass == "" {
				var err error
				if pass, err = readPassword("Nueva password: "); err != nil {
					return err
				}
			}

			cl := newClient()
			b, _ := json.Marshal(map[string]string{"new_password": pass})
			status, body, err := cl.do("POST", "/password/complete", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("set-password falló: status=%d body=%s", status, string(body))
			}
			fmt.Println("ok, vuelva a iniciar sesión: fieldtask login")
			return nil
		},
	}
	setPasswordCmd.Flags().StringVar(&newPassword, "password", "", "Nueva password (si se omite se pide por stdin)")

	return []*cobra.Command{loginCmd, logoutCmd, whoamiCmd, setPasswordCmd}
}
