package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds everything the run needs beyond the two input paths.
type Config struct {
	Features FeaturesConfig
	Model    ModelConfig
	Split    SplitConfig
	Report   ReportConfig
	Logging  LoggingConfig
}

// FeaturesConfig names the pipeline's input columns.
type FeaturesConfig struct {
	Categorical []string
	Numeric     []string
	Label       string
}

// ModelConfig carries the regressor hyperparameters.
type ModelConfig struct {
	Trees          int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
	Subsample      float64
	Seed           int64
}

// SplitConfig controls the train/validation partition.
type SplitConfig struct {
	ValidationRatio float64
	Seed            int64
}

// ReportConfig controls the printed and plotted output.
type ReportConfig struct {
	SampleRows  int
	ScatterPath string
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads an optional salespredict.yaml from the working directory on top
// of the built-in defaults.
func Load() (*Config, error) {
	viper.SetConfigName("salespredict")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("features.categorical", []string{"StateHoliday", "StoreType", "Assortment"})
	viper.SetDefault("features.numeric", []string{"DayOfWeek", "Promo", "SchoolHoliday", "CompetitionDistance"})
	viper.SetDefault("features.label", "Sales")

	viper.SetDefault("model.trees", 60)
	viper.SetDefault("model.learningrate", 0.1)
	viper.SetDefault("model.maxdepth", 5)
	viper.SetDefault("model.minsamplesleaf", 10)
	viper.SetDefault("model.subsample", 0.8)
	viper.SetDefault("model.seed", 42)

	viper.SetDefault("split.validationratio", 0.3)
	viper.SetDefault("split.seed", 42)

	viper.SetDefault("report.samplerows", 10)
	viper.SetDefault("report.scatterpath", "predictions.png")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return &cfg, nil
}
