package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"inventory/internal/catalog"
	"inventory/internal/client"
	"inventory/internal/config"
	"inventory/internal/form"
	"inventory/internal/logger"
	"inventory/internal/shell"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errReported marks failures whose message has already been printed.
var errReported = errors.New("reported")

type printNotifier struct {
	out, errOut io.Writer
}

func (n printNotifier) Success(message string) {
	fmt.Fprintln(n.out, message)
}

func (n printNotifier) Failure(message string, err error) {
	fmt.Fprintf(n.errOut, "%s: %v\n", message, err)
}

type app struct {
	out, errOut io.Writer
	apiURL      string
	shell       *shell.Shell
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Create, list, search and edit inventory products",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "inventory API base URL (overrides INVENTORY_API_URL)")

	root.AddCommand(a.listCmd(), a.showCmd(), a.addCmd(), a.editCmd())
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	baseURL := cfg.Client.BaseURL
	if a.apiURL != "" {
		baseURL = a.apiURL
	}

	log := logger.Must(cfg.App.Env)
	if cfg.App.Env != "production" {
		// Keep terminal output readable; request tracing is debug-level.
		log = log.WithOptions(zap.IncreaseLevel(zap.WarnLevel))
	}

	gw := client.NewGateway(baseURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		client.WithLogger(log),
	)
	a.shell = shell.New(gw, printNotifier{out: a.out, errOut: a.errOut}, log)
	return nil
}

func (a *app) listCmd() *cobra.Command {
	var (
		query    string
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally filtered by a search query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1, got %d", page)
			}
			if pageSize < 0 {
				return fmt.Errorf("--page-size must not be negative, got %d", pageSize)
			}
			view, err := a.shell.OpenList(cmd.Context())
			if err != nil {
				fmt.Fprintln(a.errOut, view.Err)
				return errReported
			}
			view.Query = query

			matched := view.Rows()
			rows, pages := catalog.Page(matched, page, pageSize)

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBRAND\tCATEGORY\tSKU\tDESCRIPTION\tVARIANTS")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Brand, r.Category, r.SKU, r.Description, r.Variants)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if pages > 1 {
				fmt.Fprintf(a.out, "Page %d of %d, %d products\n", page, pages, len(matched))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "case-insensitive match on name, brand, category or SKU")
	cmd.Flags().IntVar(&page, "page", 1, "page to show, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "rows per page, 0 for all")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.shell.OpenEdit(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintln(a.errOut, view.Err)
				return errReported
			}
			printDraft(a.out, view.Form.Draft())
			return nil
		},
	}
}

type productFlags struct {
	values   map[form.ProductField]*string
	variants []string
}

func bindProductFlags(cmd *cobra.Command) *productFlags {
	pf := &productFlags{values: make(map[form.ProductField]*string)}
	usage := map[form.ProductField]string{
		form.FieldName:        "product name",
		form.FieldBrand:       "brand",
		form.FieldCategory:    "category",
		form.FieldSKU:         "stock keeping unit",
		form.FieldModelNumber: "model number",
		form.FieldSupplier:    "supplier",
		form.FieldWarranty:    "warranty",
		form.FieldDescription: "description",
	}
	for _, f := range form.ProductFields {
		pf.values[f] = cmd.Flags().String(flagName(f), "", usage[f])
	}
	cmd.Flags().StringArrayVar(&pf.variants, "variant", nil, "variant as weight,price,stock (repeatable)")
	return pf
}

// flagName turns "modelNumber" into "model-number".
func flagName(f form.ProductField) string {
	var b strings.Builder
	for _, r := range string(f) {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('-')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (a *app) addCmd() *cobra.Command {
	var pf *productFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.shell.OpenCreate()
			for _, f := range form.ProductFields {
				if cmd.Flags().Changed(flagName(f)) {
					c.SetField(f, *pf.values[f])
				}
			}
			for i, raw := range pf.variants {
				idx := 0
				if i > 0 {
					idx = c.AddVariant()
				}
				if err := setVariant(c, idx, raw); err != nil {
					return err
				}
			}
			return a.submit(cmd, c)
		},
	}
	pf = bindProductFlags(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var (
		sets        []string
		variantSets []string
		addVariants []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.shell.OpenEdit(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintln(a.errOut, view.Err)
				return errReported
			}
			c := view.Form

			for _, kv := range sets {
				name, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--set %q: expected field=value", kv)
				}
				if err := c.SetFieldByName(name, value); err != nil {
					return err
				}
			}
			for _, kv := range variantSets {
				target, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--variant-set %q: expected index.field=value", kv)
				}
				rawIdx, name, ok := strings.Cut(target, ".")
				if !ok {
					return fmt.Errorf("--variant-set %q: expected index.field=value", kv)
				}
				idx, err := strconv.Atoi(rawIdx)
				if err != nil {
					return fmt.Errorf("--variant-set %q: bad index: %w", kv, err)
				}
				if err := c.SetVariantFieldByName(idx, name, value); err != nil {
					return err
				}
			}
			for _, raw := range addVariants {
				if err := setVariant(c, c.AddVariant(), raw); err != nil {
					return err
				}
			}
			if err := a.submit(cmd, c); err != nil {
				return err
			}
			printDraft(a.out, c.Draft())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value (repeatable)")
	cmd.Flags().StringArrayVar(&variantSets, "variant-set", nil, "index.field=value (repeatable)")
	cmd.Flags().StringArrayVar(&addVariants, "add-variant", nil, "append a variant as weight,price,stock (repeatable)")
	return cmd
}

func setVariant(c *form.Controller, idx int, raw string) error {
	parts := strings.Split(raw, ",")
	if len(parts) != len(form.VariantFields) {
		return fmt.Errorf("variant %q: expected weight,price,stock", raw)
	}
	for i, f := range form.VariantFields {
		if err := c.SetVariantField(idx, f, strings.TrimSpace(parts[i])); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) submit(cmd *cobra.Command, c *form.Controller) error {
	outcome, err := c.Submit(cmd.Context())
	switch outcome {
	case form.OutcomeInvalid:
		errs := c.Errors()
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(a.errOut, "%s: %s\n", k, errs[k])
		}
		return errReported
	case form.OutcomeFailed:
		// The notifier has already reported gateway failures.
		if err != nil && !errors.Is(err, client.ErrNetwork) {
			return err
		}
		return errReported
	}
	return nil
}

func printDraft(w io.Writer, d form.Draft) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", d.ID)
	for _, f := range form.ProductFields {
		fmt.Fprintf(tw, "%s\t%s\n", f, d.Get(f))
	}
	for i, v := range d.Variants {
		fmt.Fprintf(tw, "variant %d\t%skg, $%s, Stock: %s\n", i, v.Weight, v.Price, v.Stock)
	}
	_ = tw.Flush()
}
