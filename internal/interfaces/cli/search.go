package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/search/embedding"
	"github.com/turtacn/OmicsPath-Intelligence/internal/infrastructure/search/milvus"
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

type searchReport struct {
	Query string       `json:"query"`
	Hits  []milvus.Hit `json:"hits"`
}

type searchReports []searchReport

func (r searchReports) TableHeaders() []string {
	return []string{"QUERY", "COMPOUND", "NAME", "MATCH", "SCORE"}
}

func (r searchReports) TableRows() [][]string {
	var rows [][]string
	for _, rep := range r {
		for _, h := range rep.Hits {
			rows = append(rows, []string{
				rep.Query, h.CompoundID, h.Name, h.MatchType,
				strconv.FormatFloat(h.Score, 'f', 4, 64),
			})
		}
	}
	return rows
}

func newSearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Resolve compound names against the annotation store",
		Long: "search embeds each query string and looks it up in the configured vector\n" +
			"store of compound names and synonyms. The analysis pipeline never depends\n" +
			"on this command; it is a standalone annotation helper.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			scfg := cliCtx.Config.Search
			if !scfg.Enabled {
				return errors.New(errors.ErrCodeSearchUnavailable, "annotation search is disabled; set search.enabled in the configuration")
			}

			embedder, err := embedding.NewClient(embedding.Config{
				BaseURL: scfg.Embedding.BaseURL,
				Model:   scfg.Embedding.Model,
				Timeout: scfg.Embedding.Timeout,
			}, cliCtx.Logger)
			if err != nil {
				return err
			}

			searcherCfg := milvus.Config{
				Addr:         scfg.Milvus.Addr,
				DBName:       scfg.Milvus.DBName,
				Collection:   scfg.Milvus.Collection,
				EmbeddingDim: scfg.Milvus.EmbeddingDim,
				TopK:         scfg.Milvus.TopK,
				Timeout:      scfg.Milvus.Timeout,
			}
			if topK > 0 {
				searcherCfg.TopK = topK
			}

			searcher, err := milvus.NewSearcher(cmd.Context(), searcherCfg, embedder, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer searcher.Close()

			results, err := searcher.LookupAll(cmd.Context(), args)
			if err != nil {
				return err
			}

			reports := make(searchReports, len(args))
			for i, q := range args {
				reports[i] = searchReport{Query: q, Hits: results[i]}
			}
			return printResult(cmd, reports)
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "number of hits per query (overrides configuration)")
	return cmd
}
