package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"clay.game/internal/transport/observer"
)

// stateCmd reads the live base from a running server. By default it prints
// a resource table; -raw prints the response body untouched.
func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("raw", false, "print the raw /v1/state body")
	resource := fs.String("resource", "", "only show this resource")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	body, err := fetchState(ctx, http.DefaultClient, *baseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "state:", err)
		os.Exit(1)
	}
	if *raw {
		fmt.Println(string(body))
		return
	}
	var resp observer.StateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		fmt.Fprintln(os.Stderr, "decode:", err)
		os.Exit(1)
	}
	if err := writeStateSummary(os.Stdout, resp, *resource); err != nil {
		fmt.Fprintln(os.Stderr, "state:", err)
		os.Exit(1)
	}
}

func fetchState(ctx context.Context, cl *http.Client, baseURL string) ([]byte, error) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/v1/state"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	res, err := cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s: %s", res.Status, strings.TrimSpace(string(b)))
	}
	return b, nil
}

func writeStateSummary(w io.Writer, resp observer.StateResponse, only string) error {
	st := resp.State
	if st == nil {
		return fmt.Errorf("response has no state")
	}
	d := resp.Derived
	fmt.Fprintf(w, "era=%s\tcrew=%d/%d\traid=%.4f/h\tefficiency=%.2f\tcontent=%s\n",
		st.EraID, d.AvailableCrew, st.CrewCount, d.Risk.RaidChancePerHour, d.Efficiency, resp.CatalogDigest)

	ids := slices.Sorted(maps.Keys(st.Resources))
	if only != "" {
		if _, ok := st.Resources[only]; !ok {
			return fmt.Errorf("unknown resource %q", only)
		}
		ids = []string{only}
	}
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Resource", "Amount", "Cap", "Rate/h"}))
	for _, id := range ids {
		r := st.Resources[id]
		_ = table.Append([]string{id, fmt.Sprintf("%.2f", r.Amount), fmt.Sprintf("%.2f", r.Cap), fmt.Sprintf("%+.2f", d.RatesPerHour.Get(id))})
	}
	if err := table.Render(); err != nil {
		return err
	}
	if resp.Advisors.Project != "" {
		fmt.Fprintln(w, "advisor:", resp.Advisors.Project)
	}
	return nil
}
