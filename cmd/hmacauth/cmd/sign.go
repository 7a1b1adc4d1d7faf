package cmd

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/golden-vcr/hmac-auth/hmac"
)

var signCmd = &cobra.Command{
	Use:   "sign URL",
	Short: "Sign a request and print its URL and auth headers",
	Long: `Computes the HMAC signature for a request to URL and prints the signed URL
followed by the headers the server expects, one per line. With --curl, prints a curl
command instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, _ := cmd.Flags().GetString("api-key")
		secret, _ := cmd.Flags().GetString("secret")
		method, _ := cmd.Flags().GetString("method")
		asCurl, _ := cmd.Flags().GetBool("curl")
		if apiKey == "" {
			return fmt.Errorf("--api-key is required")
		}
		if secret == "" {
			return fmt.Errorf("--secret or HMACAUTH_SECRET is required")
		}

		req, err := http.NewRequest(strings.ToUpper(method), args[0], nil)
		if err != nil {
			return fmt.Errorf("invalid request: %w", err)
		}
		signed, err := hmac.NewSigner(apiKey, secret).Sign(req)
		if err != nil {
			return fmt.Errorf("failed to sign request: %w", err)
		}
		return printSigned(cmd, signed, asCurl)
	},
}

func init() {
	signCmd.Flags().String("api-key", "", "API key to sign with")
	signCmd.Flags().String("secret", os.Getenv("HMACAUTH_SECRET"), "Secret for the API key (env: HMACAUTH_SECRET)")
	signCmd.Flags().StringP("method", "X", http.MethodGet, "HTTP method of the request")
	signCmd.Flags().Bool("curl", false, "Print a curl command")
}

func printSigned(cmd *cobra.Command, req *http.Request, asCurl bool) error {
	out := cmd.OutOrStdout()
	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	if !asCurl {
		fmt.Fprintln(out, req.URL.String())
		for _, name := range names {
			fmt.Fprintf(out, "%s: %s\n", name, req.Header.Get(name))
		}
		return nil
	}

	parts := []string{"curl", "-X", req.Method}
	for _, name := range names {
		parts = append(parts, "-H", fmt.Sprintf("'%s: %s'", name, req.Header.Get(name)))
	}
	parts = append(parts, fmt.Sprintf("'%s'", req.URL.String()))
	fmt.Fprintln(out, strings.Join(parts, " "))
	return nil
}
