package survey

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dkap-cli/internal/chart"
	"github.com/KaramelBytes/dkap-cli/internal/cluster"
	"github.com/KaramelBytes/dkap-cli/internal/dataset"
	"github.com/KaramelBytes/dkap-cli/internal/stats"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
)

// Column names of knowledge_score_clusters.csv, which later analyses join on.
const (
	colKnowledge = "knowledge_score"
	colCluster   = "cluster"
)

// knowledgeData is the clustering input: respondent ids plus the numeric
// and binary attributes.
type knowledgeData struct {
	table       *dataset.Table // without the id column
	ids         []string
	scoreCol    string
	numeric     []string
	categorical []string
	num         [][]float64
	cat         [][]string
}

func (r *Runner) loadKnowledge() (*knowledgeData, error) {
	t, err := r.load(r.Cfg.Files.Knowledge, dataset.ReadOptions{HeaderRow: 1})
	if err != nil {
		return nil, err
	}
	ids, err := t.Strings(r.Cfg.IDColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", r.Cfg.Files.Knowledge, r.Cfg.IDColumn, err)
	}
	d := &knowledgeData{table: t.Drop(r.Cfg.IDColumn), ids: ids}
	d.numeric, d.categorical = cluster.SplitColumns(d.table)
	for _, c := range d.table.Columns {
		if strings.EqualFold(c.Name, colKnowledge) {
			d.scoreCol = c.Name
			break
		}
	}
	if d.scoreCol == "" {
		if len(d.numeric) == 0 {
			return nil, fmt.Errorf("%s: no knowledge score column: %w", r.Cfg.Files.Knowledge, dataset.ErrColumnNotFound)
		}
		d.scoreCol = d.numeric[0]
	}
	d.num, d.cat, err = cluster.Matrices(d.table, d.numeric, d.categorical)
	if err != nil {
		return nil, err
	}
	r.Log.Debug("knowledge attributes", zap.Strings("numeric", d.numeric), zap.Int("categorical", len(d.categorical)))
	return d, nil
}

func (r *Runner) fit(d *knowledgeData, k int) (*cluster.Result, error) {
	c := r.Cfg.Cluster
	res, err := cluster.KPrototypes(d.num, d.cat, cluster.Options{K: k, NInit: c.NInit, MaxIter: c.MaxIter, Seed: c.Seed})
	if err != nil {
		return nil, fmt.Errorf("k-prototypes k=%d: %w", k, err)
	}
	r.Log.Info("k-prototypes fitted", zap.Int("k", k), zap.Float64("cost", res.Cost), zap.Ints("sizes", res.Sizes()))
	return res, nil
}

// encoded is the one-hot design used by the distance-based metrics.
func (d *knowledgeData) encoded() ([][]float64, error) {
	enc, err := cluster.OneHot(d.numeric, d.num, d.categorical, d.cat)
	if err != nil {
		return nil, err
	}
	return enc.Rows, nil
}

// ClusterKnowledge segments respondents by knowledge score and demographics
// with k-prototypes.
func (r *Runner) ClusterKnowledge(k int) error {
	if k <= 0 {
		k = r.Cfg.Cluster.K
	}
	d, err := r.loadKnowledge()
	if err != nil {
		return err
	}
	res, err := r.fit(d, k)
	if err != nil {
		return err
	}
	labels := make([]string, len(res.Labels))
	for i, l := range res.Labels {
		labels[i] = strconv.Itoa(l)
	}

	out := d.table.Clone()
	out.AddColumn("Cluster", labels)
	out.InsertColumn(0, r.Cfg.IDColumn, d.ids)
	if err := r.writeCSV(out, "clusters.csv", fmt.Sprintf("Respondents with k-prototypes cluster (k=%d)", k)); err != nil {
		return err
	}

	score, _ := d.table.Numeric(d.scoreCol)
	slim := dataset.New("knowledge_score_clusters", r.Cfg.IDColumn, colKnowledge, colCluster)
	for i := range labels {
		slim.Append(d.ids[i], score[i], labels[i])
	}
	if err := r.writeCSV(slim, "knowledge_score_clusters.csv", "Knowledge score and cluster per respondent"); err != nil {
		return err
	}

	groups, err := out.GroupBy("Cluster")
	if err != nil {
		return err
	}
	summary := dataset.New("knowledge_cluster_summary", "Cluster", "mean", "std", "count")
	box := make([]chart.Series, len(groups))
	for i, g := range groups {
		vals := dataset.Pick(score, g.Rows)
		summary.Append(g.Label, stats.Mean(vals), stats.Std(vals), len(dataset.DropNaN(vals)))
		box[i] = chart.Series{Label: g.Label, Values: vals}
	}
	r.printf("\n=== Cluster Summaries ===\n")
	for i := 0; i < summary.Len(); i++ {
		r.printf("%s\n", strings.Join(summary.Row(i), "\t"))
	}
	if err := r.writeCSV(summary, "knowledge_cluster_summary.csv", "Knowledge score per cluster"); err != nil {
		return err
	}

	title := "Knowledge Score Distribution per Cluster"
	if err := r.plot("knowledge_score_clusters.png", title, func(p string) error {
		return chart.Boxplot(p, title, "Cluster", d.scoreCol, box, true, r.Chart)
	}); err != nil {
		return err
	}

	demo := prefixed(out, r.Cfg.DemographicPrefixes)
	if len(demo) == 0 {
		r.warn("no demographic columns with the configured prefixes, skipping heatmap")
		return nil
	}
	z, clusters, err := groupMeans(out, groups, demo)
	if err != nil {
		return err
	}
	title = "Demographic Distribution per Cluster"
	return r.plot("demographics_clusters.png", title, func(p string) error {
		return chart.Heatmap(p, title, demo, clusters, z, chart.HeatmapOptions{
			Options: r.Chart, Palette: chart.PaletteSequential, Annotate: true,
		})
	})
}

// groupMeans returns the mean of every column per group as a columns x
// groups matrix, plus the group labels.
func groupMeans(t *dataset.Table, groups []dataset.Group, cols []string) ([][]float64, []string, error) {
	labels := make([]string, len(groups))
	for j, g := range groups {
		labels[j] = g.Label
	}
	z := make([][]float64, len(cols))
	for i, c := range cols {
		vals, err := t.Numeric(c)
		if err != nil {
			return nil, nil, err
		}
		z[i] = make([]float64, len(groups))
		for j, g := range groups {
			z[i][j] = stats.Mean(dataset.Pick(vals, g.Rows))
		}
	}
	return z, labels, nil
}

// EvaluateClusters reports the k-prototypes cost (WCSS) and the
// Davies-Bouldin index for every k in the configured range.
func (r *Runner) EvaluateClusters(ks []int) error {
	if len(ks) == 0 {
		ks = r.Cfg.Cluster.KRange
	}
	d, err := r.loadKnowledge()
	if err != nil {
		return err
	}
	x, err := d.encoded()
	if err != nil {
		return err
	}
	out := dataset.New("cluster_evaluation", "k", "Inertia (WCSS)", "Davies-Bouldin Index")
	var xs, wcss, dbis []float64
	for _, k := range ks {
		r.printf("\n--- Evaluating %d clusters ---\n", k)
		res, err := r.fit(d, k)
		if err != nil {
			return err
		}
		dbi, err := cluster.DaviesBouldin(x, res.Labels)
		if err != nil {
			r.warn(fmt.Sprintf("Davies-Bouldin for k=%d: %v", k, err), zap.Int("k", k))
			dbi = math.NaN()
		}
		r.printf("Inertia (WCSS): %.2f\nDavies-Bouldin Index: %.3f\n", res.Cost, dbi)
		out.Append(k, res.Cost, dbi)
		xs = append(xs, float64(k))
		wcss = append(wcss, res.Cost)
		dbis = append(dbis, dbi)
	}
	if err := r.writeCSV(out, "cluster_evaluation.csv", "Clustering evaluation per k"); err != nil {
		return err
	}
	return r.plot("cluster_evaluation.png", "Inertia and Davies-Bouldin index per k", func(p string) error {
		elbow, err := chart.LinePlot("Elbow Method (WCSS)", "Number of Clusters (k)", "Inertia (WCSS)", xs, wcss)
		if err != nil {
			return err
		}
		db, err := chart.LinePlot("Davies-Bouldin Index", "Number of Clusters (k)", "DBI (lower is better)", xs, dbis)
		if err != nil {
			return err
		}
		return chart.SavePanels(p, [][]*plot.Plot{{elbow, db}}, r.Chart)
	})
}

// Silhouette scores k-prototypes solutions over the silhouette range and
// marks the best k.
func (r *Runner) Silhouette(ks []int) error {
	if len(ks) == 0 {
		ks = r.Cfg.Cluster.SilhouetteRange
	}
	d, err := r.loadKnowledge()
	if err != nil {
		return err
	}
	x, err := d.encoded()
	if err != nil {
		return err
	}
	out := dataset.New("silhouette_scores", "k", "Silhouette Score")
	var xs, ys []float64
	best := -1
	for _, k := range ks {
		res, err := r.fit(d, k)
		if err != nil {
			return err
		}
		s, err := cluster.Silhouette(x, res.Labels)
		if err != nil {
			r.warn(fmt.Sprintf("silhouette for k=%d: %v", k, err), zap.Int("k", k))
			continue
		}
		r.printf("Silhouette Score for %d clusters: %.3f\n", k, s)
		out.Append(k, s)
		xs = append(xs, float64(k))
		ys = append(ys, s)
		if best < 0 || s > ys[best] {
			best = len(ys) - 1
		}
	}
	if best < 0 {
		return fmt.Errorf("silhouette: no k produced a score: %w", stats.ErrInsufficientData)
	}
	if err := r.writeCSV(out, "silhouette_scores.csv", "Silhouette score per k"); err != nil {
		return err
	}
	title := "Silhouette Scores vs Number of Clusters"
	return r.plot("silhouette_scores.png", title, func(p string) error {
		pl, err := chart.LinePlot(title, "Number of Clusters (k)", "Silhouette Score", xs, ys)
		if err != nil {
			return err
		}
		label := fmt.Sprintf("Best k = %d (%.3f)", int(xs[best]), ys[best])
		if err := chart.MarkPoint(pl, xs[best], ys[best], label); err != nil {
			return err
		}
		return chart.Save(pl, p, r.Chart)
	})
}
