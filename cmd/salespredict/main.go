package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesml/pkg/config"
	"salesml/pkg/data"
	"salesml/pkg/dataprep"
	"salesml/pkg/logger"
	"salesml/pkg/model"
	"salesml/pkg/pipeline"
	"salesml/pkg/workflow"
)

const (
	joinColumn     = "Store"
	openColumn     = "Open"
	featuresColumn = "features"
	scaledColumn   = "scaledFeatures"
)

var rootCmd = &cobra.Command{
	Use:          "salespredict <sales-csv> <store-csv>",
	Short:        "Train and evaluate a daily sales regressor from store sales history",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0], args[1])
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline wires index → one-hot per categorical column, then assembly
// and scaling, in that fixed order.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	var stages []pipeline.Stage
	assemble := make([]string, 0, len(cfg.Features.Categorical)+len(cfg.Features.Numeric))
	for _, col := range cfg.Features.Categorical {
		indexed := col + "Index"
		encoded := col + "Vec"
		stages = append(stages,
			dataprep.NewStringIndexer(col, indexed),
			dataprep.NewOneHotEncoder(indexed, encoded),
		)
		assemble = append(assemble, encoded)
	}
	assemble = append(assemble, cfg.Features.Numeric...)
	stages = append(stages,
		dataprep.NewVectorAssembler(assemble, featuresColumn),
		dataprep.NewMinMaxScaler(featuresColumn, scaledColumn),
	)
	return pipeline.New(stages...)
}

func run(salesPath, storePath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.Log.With(zap.String("run_id", uuid.NewString()))
	log.Info("run starting",
		zap.String("sales", salesPath),
		zap.String("stores", storePath))

	sales, err := data.LoadSales(salesPath)
	if err != nil {
		return err
	}
	stores, err := data.LoadStores(storePath)
	if err != nil {
		return err
	}
	joined, err := data.Join(sales, stores, joinColumn)
	if err != nil {
		return err
	}
	if joined.Schema().Has(openColumn) {
		joined, err = data.FilterRows(joined, openColumn, func(v float64) bool { return v > 0 })
		if err != nil {
			return err
		}
		log.Info("closed-store rows excluded", zap.Int("rows", joined.NumRows()))
	}

	pl, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	fitted, err := pl.Fit(joined)
	if err != nil {
		return err
	}
	feats, err := fitted.Transform(joined)
	if err != nil {
		return err
	}

	fmt.Println("Feature dataset schema:")
	workflow.WriteSchema(os.Stdout, feats)

	train, val, err := workflow.Split(feats, cfg.Split.ValidationRatio, cfg.Split.Seed)
	if err != nil {
		return err
	}

	reg := model.NewGBTRegressor(
		model.WithNTrees(cfg.Model.Trees),
		model.WithLearningRate(cfg.Model.LearningRate),
		model.WithMaxDepth(cfg.Model.MaxDepth),
		model.WithMinSamplesLeaf(cfg.Model.MinSamplesLeaf),
		model.WithSubsample(cfg.Model.Subsample),
		model.WithRandomState(cfg.Model.Seed),
	)
	if err := workflow.Train(train, scaledColumn, cfg.Features.Label, reg); err != nil {
		return err
	}

	preds, actuals, rmse, err := workflow.Evaluate(reg, val, scaledColumn, cfg.Features.Label)
	if err != nil {
		return err
	}

	fmt.Println("Sample predictions:")
	workflow.WriteSamples(os.Stdout, preds, actuals, cfg.Report.SampleRows)
	fmt.Printf("RMSE: %.4f\n", rmse)

	if cfg.Report.ScatterPath != "" {
		if err := workflow.SaveScatter(preds, actuals, cfg.Report.ScatterPath); err != nil {
			log.Warn("scatter plot not written", zap.Error(err))
		} else {
			log.Info("scatter plot written", zap.String("path", cfg.Report.ScatterPath))
		}
	}
	return nil
}
