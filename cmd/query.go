package cmd

import (
	"encoding/json"
	"io"
	"strings"

	"newsdesk/internal/news"

	"github.com/spf13/cobra"
)

var (
	queryLang     string
	searchReq     news.SearchRequest
	trendingLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a news search in-process and print the JSON response",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		req := searchReq
		req.Query = strings.Join(args, " ")
		req.Language = queryLang
		resp, err := a.service.Search(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Compose trending news in-process and print the JSON response",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.service.Trending(cmd.Context(), queryLang, trendingLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured news sources for a language",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), GetConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.service.Sources(queryLang)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, trendingCmd, sourcesCmd} {
		c.Flags().StringVarP(&queryLang, "lang", "l", "en", "language code")
		rootCmd.AddCommand(c)
	}
	searchCmd.Flags().IntVar(&searchReq.Page, "page", 1, "page number (1-based)")
	searchCmd.Flags().IntVar(&searchReq.PageSize, "page-size", news.DefaultPageSize, "articles per page")
	searchCmd.Flags().StringSliceVar(&searchReq.PreferredSources, "source", nil, "preferred source (repeatable)")
	searchCmd.Flags().StringVar(&searchReq.Category, "category", "", "restrict to a category")
	searchCmd.Flags().StringVar(&searchReq.FromDate, "from", "", "only articles published on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().BoolVar(&searchReq.InitialLoad, "latest", false, "return the latest articles when no query is given")
	trendingCmd.Flags().IntVar(&trendingLimit, "limit", 0, "maximum number of articles (default from config)")
}
