package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/PaesslerAG/jsonpath"
	"github.com/spf13/cobra"

	"github.com/nurpe/erp-console/internal/apiclient"
	"github.com/nurpe/erp-console/internal/routes"
)

func callCmd(a *app) *cobra.Command {
	var (
		params []string
		query  []string
		data   string
		sel    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "call <route-key>",
		Short: "Call any route of the table and print the envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := apiclient.CallOptions{}
			var err error
			if opts.Params, err = parseKeyValues(params); err != nil {
				return err
			}
			if opts.Query, err = parseKeyValues(query); err != nil {
				return err
			}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				opts.Body = json.RawMessage(data)
			}

			env := a.client.Call(cmd.Context(), args[0], opts)
			if err := env.Err(); err != nil {
				return a.describe(err)
			}

			if len(env.Raw) > 0 {
				return saveDownload(a, env, output)
			}
			if sel != "" {
				value, err := selectPath(env.Data, sel)
				if err != nil {
					return err
				}
				return printJSON(a, value)
			}
			return printJSON(a, env)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "path parameter name=value")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter name=value")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&sel, "select", "", "JSONPath applied to the response data, e.g. $[0].id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file for binary responses (default: server file name)")
	return cmd
}

func routesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		RunE: func(_ *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			for _, r := range routes.All() {
				access := strings.Join(r.Permissions, "|")
				switch {
				case r.Public:
					access = "public"
				case access == "":
					access = "signed in"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Key, r.Method, r.Path, access)
			}
			return w.Flush()
		},
	}
}

func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		result[key] = value
	}
	return result, nil
}

func selectPath(data json.RawMessage, expr string) (any, error) {
	var doc any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("response data is not JSON: %w", err)
		}
	}
	value, err := jsonpath.Get(strings.TrimSpace(expr), doc)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", expr, err)
	}
	return value, nil
}

func printJSON(a *app, value any) error {
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	a.printf("%s\n", b)
	return nil
}

func saveDownload(a *app, env apiclient.Envelope, output string) error {
	name := output
	if name == "" {
		name = env.FileName
	}
	if name == "" {
		name = "download.bin"
	}
	if err := os.WriteFile(name, env.Raw, 0o644); err != nil {
		return err
	}
	a.printf("saved %s (%d bytes)\n", name, len(env.Raw))
	return nil
}
