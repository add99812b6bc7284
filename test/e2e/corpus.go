// Package e2e provides end-to-end tests running the full ask pipeline over a
// generated document corpus.
package e2e

import "fmt"

// CorpusDocument is one generated document: a file name and per-page text.
// Each document carries a unique signature phrase so queries can assert that
// the right document is cited.
type CorpusDocument struct {
	ID    string
	Name  string
	Pages []string
}

// QueryCase is a question and the document IDs that must appear among the
// answer's sources.
type QueryCase struct {
	Question       string
	ExpectedDocIDs []string
	Description    string
}

// Corpus holds generated documents and query cases.
type Corpus struct {
	Documents []CorpusDocument
	Cases     []QueryCase
}

type topic struct {
	name      string
	signature string
	content   string
}

var topics = []topic{
	{"photosynthesis", "photosynthesis light reactions", "Photosynthesis converts light into chemical energy. The photosynthesis light reactions take place in the thylakoid membranes of chloroplasts."},
	{"mitochondria", "mitochondria cellular respiration", "Mitochondria are the site of cellular respiration. The mitochondria cellular respiration pathway produces ATP from glucose."},
	{"plate-tectonics", "plate tectonics continental drift", "Plate tectonics explains the movement of the lithosphere. Plate tectonics continental drift reshapes ocean basins over millions of years."},
	{"neural-coding", "neural coding action potentials", "Neurons communicate through electrical signals. Neural coding action potentials carry information along axons."},
	{"climate-models", "climate models radiative forcing", "Climate models simulate the atmosphere and oceans. Climate models radiative forcing quantifies the energy imbalance from greenhouse gases."},
	{"game-theory", "game theory nash equilibrium", "Game theory studies strategic interaction. Game theory nash equilibrium describes stable strategy profiles."},
	{"enzyme-kinetics", "enzyme kinetics michaelis menten", "Enzymes catalyze biochemical reactions. Enzyme kinetics michaelis menten constants describe substrate affinity."},
	{"black-holes", "black holes event horizon", "Black holes form from collapsed massive stars. Black holes event horizon marks the boundary of no return."},
	{"immune-system", "immune system antibody response", "The immune system defends against pathogens. Immune system antibody response targets specific antigens."},
	{"semiconductors", "semiconductors band gap", "Semiconductors conduct under specific conditions. Semiconductors band gap energy determines electrical behavior."},
	{"linguistics", "linguistics phoneme morphology", "Linguistics studies the structure of language. Linguistics phoneme morphology analysis reveals word formation rules."},
	{"supply-chains", "supply chains bullwhip effect", "Supply chains move goods from producers to consumers. Supply chains bullwhip effect amplifies demand variability upstream."},
	{"coral-reefs", "coral reefs bleaching symbiosis", "Coral reefs host diverse marine ecosystems. Coral reefs bleaching symbiosis breaks down when water temperatures rise."},
	{"epidemiology", "epidemiology basic reproduction number", "Epidemiology tracks disease spread in populations. Epidemiology basic reproduction number predicts outbreak growth."},
	{"cryptography", "cryptography public key exchange", "Cryptography secures communication. Cryptography public key exchange lets parties agree on secrets over open channels."},
	{"glaciology", "glaciology ice core records", "Glaciers preserve climate history. Glaciology ice core records reveal atmospheric composition over millennia."},
	{"behavioral-econ", "behavioral economics loss aversion", "Behavioral economics studies decision biases. Behavioral economics loss aversion makes losses loom larger than gains."},
	{"astronomy", "exoplanet transit photometry", "Astronomers detect planets around other stars. Exoplanet transit photometry measures dips in stellar brightness."},
	{"genetics", "genetics gene expression regulation", "Genetics studies heredity and variation. Genetics gene expression regulation controls which proteins a cell makes."},
	{"materials", "materials fatigue crack propagation", "Materials science studies structure and properties. Materials fatigue crack propagation limits component lifetimes."},
	{"oceanography", "oceanography thermohaline circulation", "Oceanography studies the seas. Oceanography thermohaline circulation moves heat between ocean basins."},
	{"psychology", "psychology working memory capacity", "Psychology examines mind and behavior. Psychology working memory capacity bounds how much we hold in mind at once."},
	{"robotics", "robotics inverse kinematics", "Robotics combines sensing and actuation. Robotics inverse kinematics computes joint angles for a target pose."},
	{"volcanology", "volcanology magma viscosity", "Volcanology studies eruptions. Volcanology magma viscosity determines whether eruptions are explosive or effusive."},
}

// BuildCorpus returns the generated documents and query cases.
func BuildCorpus() *Corpus {
	docs := make([]CorpusDocument, 0, len(topics))
	for i, tp := range topics {
		id := fmt.Sprintf("doc-%02d-%s", i, tp.name)
		docs = append(docs, CorpusDocument{
			ID:   id,
			Name: tp.name + ".pdf",
			Pages: []string{
				tp.content,
				fmt.Sprintf("Further discussion of %s appears in the appendix with methods and references.", tp.name),
			},
		})
	}
	cases := []QueryCase{
		{
			Question:       "what happens during the photosynthesis light reactions",
			ExpectedDocIDs: []string{"doc-00-photosynthesis"},
			Description:    "signature phrase match",
		},
		{
			Question:       "explain mitochondria cellular respiration",
			ExpectedDocIDs: []string{"doc-01-mitochondria"},
			Description:    "signature phrase match",
		},
		{
			Question:       "what is the nash equilibrium in game theory",
			ExpectedDocIDs: []string{"doc-05-game-theory"},
			Description:    "what-is question with scattered terms",
		},
		{
			Question:       "how does the event horizon of black holes work",
			ExpectedDocIDs: []string{"doc-07-black-holes"},
			Description:    "how question",
		},
		{
			Question:       "why do coral reefs experience bleaching",
			ExpectedDocIDs: []string{"doc-12-coral-reefs"},
			Description:    "why question",
		},
		{
			Question:       "exoplanet transit photometry brightness",
			ExpectedDocIDs: []string{"doc-17-astronomy"},
			Description:    "bare keyword query",
		},
		{
			Question:       "thermohaline circulation of the ocean",
			ExpectedDocIDs: []string{"doc-20-oceanography"},
			Description:    "partial phrase",
		},
	}
	return &Corpus{Documents: docs, Cases: cases}
}
