package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsdesk/internal/httpretry"

	"github.com/spf13/cobra"
)

var (
	clientServer  string
	clientRetries int
	clientTimeout time.Duration
)

// clientCmd groups commands that talk to a running server.
var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Query a running newsdesk server with retries",
}

var clientSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "POST /api/news",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := searchReq
		req.Query = strings.Join(args, " ")
		req.Language = queryLang
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}
		return callServer(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/api/news", body)
	},
}

var clientTrendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "GET /api/news/trending/:language",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/news/trending/" + url.PathEscape(queryLang)
		if trendingLimit > 0 {
			path += fmt.Sprintf("?limit=%d", trendingLimit)
		}
		return callServer(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, path, nil)
	},
}

var clientSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "GET /api/news/sources/:language",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callServer(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/api/news/sources/"+url.PathEscape(queryLang), nil)
	},
}

func callServer(ctx context.Context, out io.Writer, method, path string, body []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(clientServer, "/")+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c := httpretry.New(httpretry.Options{Timeout: clientTimeout, MaxRetries: clientRetries})
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, b, "", "  ") == nil {
		b = append(pretty.Bytes(), '\n')
	}
	if _, err := out.Write(b); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func init() {
	clientCmd.PersistentFlags().StringVar(&clientServer, "server", "http://127.0.0.1:8080", "server base URL")
	clientCmd.PersistentFlags().IntVar(&clientRetries, "retries", httpretry.DefaultMaxRetries, "retries on 502/503/504 or network errors")
	clientCmd.PersistentFlags().DurationVar(&clientTimeout, "timeout", 30*time.Second, "per-attempt timeout")
	clientCmd.PersistentFlags().StringVarP(&queryLang, "lang", "l", "en", "language code")

	clientSearchCmd.Flags().IntVar(&searchReq.Page, "page", 1, "page number (1-based)")
	clientSearchCmd.Flags().IntVar(&searchReq.PageSize, "page-size", 20, "articles per page")
	clientSearchCmd.Flags().StringSliceVar(&searchReq.PreferredSources, "source", nil, "preferred source (repeatable)")
	clientSearchCmd.Flags().StringVar(&searchReq.Category, "category", "", "restrict to a category")
	clientSearchCmd.Flags().StringVar(&searchReq.FromDate, "from", "", "only articles published on or after this date (YYYY-MM-DD)")
	clientSearchCmd.Flags().BoolVar(&searchReq.InitialLoad, "latest", false, "return the latest articles when no query is given")
	clientTrendingCmd.Flags().IntVar(&trendingLimit, "limit", 0, "maximum number of articles")

	clientCmd.AddCommand(clientSearchCmd, clientTrendingCmd, clientSourcesCmd)
	rootCmd.AddCommand(clientCmd)
}
