package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Files names the input datasets, relative to the data directory.
type Files struct {
	// Survey export with a three-row header (section, question, option).
	Survey string `mapstructure:"survey" yaml:"survey"`
	// Binary survey export whose column names sit on the third row.
	SurveyBinary string `mapstructure:"survey_binary" yaml:"survey_binary"`
	Comparisons  string `mapstructure:"comparisons" yaml:"comparisons"`
	// Knowledge score plus one-hot demographics, names on the second row.
	Knowledge          string `mapstructure:"knowledge" yaml:"knowledge"`
	KnowledgeQuestions string `mapstructure:"knowledge_questions" yaml:"knowledge_questions"`
	KnowledgeClusters  string `mapstructure:"knowledge_clusters" yaml:"knowledge_clusters"`
	AwarenessQuestions string `mapstructure:"awareness_questions" yaml:"awareness_questions"`
	AwarenessNorm      string `mapstructure:"awareness_norm" yaml:"awareness_norm"`
	AwarenessSubscales string `mapstructure:"awareness_subscales" yaml:"awareness_subscales"`
	AttitudeNorm       string `mapstructure:"attitude_norm" yaml:"attitude_norm"`
	FactorScores       string `mapstructure:"factor_scores" yaml:"factor_scores"`
	Demographic        string `mapstructure:"demographic" yaml:"demographic"`
	DemographicsClean  string `mapstructure:"demographics_clean" yaml:"demographics_clean"`
}

// Cluster holds k-prototypes settings.
type Cluster struct {
	K               int   `mapstructure:"k" yaml:"k"`
	KRange          []int `mapstructure:"k_range" yaml:"k_range"`
	SilhouetteRange []int `mapstructure:"silhouette_range" yaml:"silhouette_range"`
	NInit           int   `mapstructure:"n_init" yaml:"n_init"`
	MaxIter         int   `mapstructure:"max_iter" yaml:"max_iter"`
	Seed            int64 `mapstructure:"seed" yaml:"seed"`
}

// Apriori holds frequent-itemset settings.
type Apriori struct {
	MinSupport float64 `mapstructure:"min_support" yaml:"min_support"`
	MaxLen     int     `mapstructure:"max_len" yaml:"max_len"`
	MinLift    float64 `mapstructure:"min_lift" yaml:"min_lift"`
	TopN       int     `mapstructure:"top_n" yaml:"top_n"`
	MaxRules   int     `mapstructure:"max_rules" yaml:"max_rules"`
	WrapWidth  int     `mapstructure:"wrap_width" yaml:"wrap_width"`
}

// EFA holds exploratory factor analysis settings.
type EFA struct {
	NFactors int    `mapstructure:"n_factors" yaml:"n_factors"`
	Rotation string `mapstructure:"rotation" yaml:"rotation"`
}

// Scale is a named group of item columns.
type Scale struct {
	Name  string   `mapstructure:"name" yaml:"name"`
	Items []string `mapstructure:"items" yaml:"items"`
}

// Global configuration structure.
type Global struct {
	DataDir   string `mapstructure:"data_dir" yaml:"data_dir"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	IDColumn  string `mapstructure:"id_column" yaml:"id_column"`
	Files     Files  `mapstructure:"files" yaml:"files"`

	LikertQuestions     []string `mapstructure:"likert_questions" yaml:"likert_questions"`
	AttitudeQuestions   []string `mapstructure:"attitude_questions" yaml:"attitude_questions"`
	AwarenessQuestions  []string `mapstructure:"awareness_questions" yaml:"awareness_questions"`
	DemographicPrefixes []string `mapstructure:"demographic_prefixes" yaml:"demographic_prefixes"`
	DemographicBy       string   `mapstructure:"demographic_by" yaml:"demographic_by"`

	ReliabilityGroups []Scale `mapstructure:"reliability_groups" yaml:"reliability_groups"`
	OmegaGroups       []Scale `mapstructure:"omega_groups" yaml:"omega_groups"`

	Cluster  Cluster `mapstructure:"cluster" yaml:"cluster"`
	Apriori  Apriori `mapstructure:"apriori" yaml:"apriori"`
	Alpha    float64 `mapstructure:"alpha" yaml:"alpha"`
	EFA      EFA     `mapstructure:"efa" yaml:"efa"`
	CFAModel string  `mapstructure:"cfa_model" yaml:"cfa_model"`
	PlotDPI  int     `mapstructure:"plot_dpi" yaml:"plot_dpi"`

	// Not serialized: the file the configuration was read from, if any, and
	// the directory relative data_dir/output_dir are resolved against.
	Source string `mapstructure:"-" yaml:"-"`
	Root   string `mapstructure:"-" yaml:"-"`
}

// DefaultCFAModel is the three-factor awareness model.
const DefaultCFAModel = `F1_env_implications =~ Q24 + Q29
F2_water_contamination =~ Q9 + Q10
F3_mps_knowledge =~ Q14 + Q19 + Q21`

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("output_dir", "out")
	v.SetDefault("id_column", "respondent_id")

	v.SetDefault("files.survey", "survey_transformed_3.csv")
	v.SetDefault("files.survey_binary", "survey_transformed_4.csv")
	v.SetDefault("files.comparisons", "antecedents_consequents.csv")
	v.SetDefault("files.knowledge", "knowledge_database_clean.csv")
	v.SetDefault("files.knowledge_questions", "database_knowledge_questions.csv")
	v.SetDefault("files.knowledge_clusters", "knowledge_score_clusters.csv")
	v.SetDefault("files.awareness_questions", "database_awareness_questions.csv")
	v.SetDefault("files.awareness_norm", "database_awareness_questions_norm.csv")
	v.SetDefault("files.awareness_subscales", "database_awareness_AW1.csv")
	v.SetDefault("files.attitude_norm", "database_attitude_norm.csv")
	v.SetDefault("files.factor_scores", "awareness_score_EFA.csv")
	v.SetDefault("files.demographic", "demographic.csv")
	v.SetDefault("files.demographics_clean", "demographics_clean.csv")

	v.SetDefault("likert_questions", []string{"Q6", "Q15", "Q17", "Q26"})
	v.SetDefault("attitude_questions", []string{"Q2", "Q3", "Q4", "Q7", "Q20", "Q30"})
	v.SetDefault("awareness_questions", []string{"Q8", "Q9", "Q10", "Q14", "Q19", "Q21", "Q24", "Q29"})
	v.SetDefault("demographic_prefixes", []string{"gender_", "age_", "educational_"})
	v.SetDefault("demographic_by", "Q32")

	v.SetDefault("reliability_groups", []map[string]any{
		{"name": "Water_contamination", "items": []string{"Q8", "Q9", "Q10"}},
		{"name": "MPs_awareness", "items": []string{"Q14", "Q19", "Q21", "Q24", "Q29"}},
	})
	v.SetDefault("omega_groups", []map[string]any{
		{"name": "Water_contamination", "items": []string{"Q8", "Q9", "Q10"}},
		{"name": "MPs_knowledge", "items": []string{"Q19", "Q21", "Q29"}},
		{"name": "MPs_env_implications", "items": []string{"Q14", "Q24"}},
	})

	v.SetDefault("cluster.k", 4)
	v.SetDefault("cluster.k_range", []int{3, 4, 5, 6})
	v.SetDefault("cluster.silhouette_range", []int{2, 3, 4, 5, 6})
	v.SetDefault("cluster.n_init", 10)
	v.SetDefault("cluster.max_iter", 100)
	v.SetDefault("cluster.seed", 42)

	v.SetDefault("apriori.min_support", 0.05)
	v.SetDefault("apriori.max_len", 3)
	v.SetDefault("apriori.min_lift", 1.0)
	v.SetDefault("apriori.top_n", 10)
	v.SetDefault("apriori.max_rules", 1000)
	v.SetDefault("apriori.wrap_width", 45)

	v.SetDefault("alpha", 0.05)
	v.SetDefault("efa.n_factors", 3)
	v.SetDefault("efa.rotation", "varimax")
	v.SetDefault("cfa_model", DefaultCFAModel)
	v.SetDefault("plot_dpi", 150)
}

// homeConfigPath returns ~/.dkap/config.yaml.
func homeConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dkap", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty it writes back to the file the configuration came from, or to
// ~/.dkap/config.yaml.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		path = c.Source
	}
	if path == "" {
		p, err := homeConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// Without cfgFile the nearest dkap.yaml above the working directory is used,
// then ~/.dkap/config.yaml.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DKAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	path := cfgFile
	if path == "" {
		if root, err := utils.FindStudyRoot(""); err == nil {
			path = filepath.Join(root, utils.StudyConfigName)
		} else if p, err := homeConfigPath(); err == nil && utils.FileExists(p) {
			path = p
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Source = path
	if path != "" {
		if home, err := homeConfigPath(); err != nil || path != home {
			c.Root = filepath.Dir(path)
		}
	}
	return &c, nil
}

// DataPath returns the data directory. Relative values are taken from the
// study directory holding dkap.yaml, or the working directory.
func (c *Global) DataPath() string { return resolve(c.Root, c.DataDir) }

// OutputPath returns the output directory, resolved like DataPath.
func (c *Global) OutputPath() string { return resolve(c.Root, c.OutputDir) }

func resolve(base, dir string) string {
	if dir == "" {
		dir = "."
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(dir, "~"), "/"))
		}
	}
	if base == "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}
