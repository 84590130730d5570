package rules

import (
	_ "embed"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"protoval/domain/protocol"
	"protoval/domain/validation"
	"protoval/internal/errors"
)

//go:embed rules.yaml
var embeddedRules []byte

// ruleFile mirrors the YAML layout of a rule set.
type ruleFile struct {
	StudyTypes      []string                      `yaml:"study_types"`
	ScoringModes    map[string]map[string]float64 `yaml:"scoring_modes"`
	DefaultSeverity string                        `yaml:"default_severity"`
	Dimensions      map[string]struct {
		Baseline      []string            `yaml:"baseline"`
		StudySpecific map[string][]string `yaml:"study_specific"`
	} `yaml:"dimensions"`
	Elements map[string]struct {
		Label    string `yaml:"label"`
		Severity string `yaml:"severity"`
		Prompt   string `yaml:"prompt"`
		Section  string `yaml:"section"`
	} `yaml:"elements"`
	Guidelines map[string]struct {
		Label    string   `yaml:"label"`
		Elements []string `yaml:"elements"`
	} `yaml:"guidelines"`
	StudyGuidelines map[string][]string `yaml:"study_guidelines"`
	Sections        struct {
		Required   map[string][]string `yaml:"required"`
		Aliases    map[string]string   `yaml:"aliases"`
		Importance map[string]float64  `yaml:"importance"`
	} `yaml:"sections"`
	RequiredFields map[string][]string `yaml:"required_fields"`
	FieldPrompts   map[string]string   `yaml:"field_prompts"`
	ForbiddenTerms map[string][]string `yaml:"forbidden_terms"`
	SectionReqs    map[string]struct {
		RequiredElements []string            `yaml:"required_elements"`
		ForbiddenPhrases []string            `yaml:"forbidden_phrases"`
		MinLength        int                 `yaml:"min_length"`
		StudySpecific    map[string][]string `yaml:"study_specific"`
	} `yaml:"section_requirements"`
	Language struct {
		CasualTerms   []string `yaml:"casual_terms"`
		InformalTerms []struct {
			Term        string `yaml:"term"`
			Replacement string `yaml:"replacement"`
		} `yaml:"informal_terms"`
		VagueTerms []struct {
			Term        string `yaml:"term"`
			Replacement string `yaml:"replacement"`
		} `yaml:"vague_terms"`
	} `yaml:"language"`
	Compliance struct {
		Sections []struct {
			Section     string   `yaml:"section"`
			Requirement string   `yaml:"requirement"`
			Elements    []string `yaml:"elements"`
			Keywords    []string `yaml:"keywords"`
		} `yaml:"sections"`
		PhaseFocus map[string]struct {
			Label      string   `yaml:"label"`
			Elements   []string `yaml:"elements"`
			Suggestion string   `yaml:"suggestion"`
		} `yaml:"phase_focus"`
	} `yaml:"compliance"`
}

// Load builds the Repository from the embedded rule set.
func Load() (*Repository, error) {
	return loadBytes(embeddedRules)
}

// LoadFile builds the Repository from an operator-supplied rule file.
func LoadFile(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rule file %s", path)
	}
	return loadBytes(data)
}

func loadBytes(data []byte) (*Repository, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WithCode(errors.CodeRulesInvalid, err)
	}
	repo := buildRepository(&file)
	if err := repo.validate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func buildRepository(file *ruleFile) *Repository {
	repo := &Repository{
		studyTypes:       make(map[protocol.StudyType]bool, len(file.StudyTypes)),
		modes:            make(map[validation.Mode]map[validation.Dimension]float64, len(file.ScoringModes)),
		dimensions:       make(map[validation.Dimension]dimensionRules, len(file.Dimensions)),
		elements:         make(map[string]elementMeta, len(file.Elements)),
		guidelines:       make(map[string]Guideline, len(file.Guidelines)),
		studyGuidelines:  make(map[protocol.StudyType][]string, len(file.StudyGuidelines)),
		requiredSections: make(map[protocol.StudyType][]string, len(file.Sections.Required)),
		sectionAliases:   file.Sections.Aliases,
		importance:       file.Sections.Importance,
		requiredFields:   file.RequiredFields,
		fieldPrompts:     file.FieldPrompts,
		forbiddenTerms:   make(map[protocol.StudyType][]string, len(file.ForbiddenTerms)),
		sectionReqs:      make(map[string]SectionRequirement, len(file.SectionReqs)),
		phaseFocus:       make(map[protocol.StudyType]PhaseFocus, len(file.Compliance.PhaseFocus)),
		defaultSeverity:  validation.Severity(file.DefaultSeverity),
	}
	if repo.sectionAliases == nil {
		repo.sectionAliases = map[string]string{}
	}
	if repo.importance == nil {
		repo.importance = map[string]float64{}
	}
	if repo.requiredFields == nil {
		repo.requiredFields = map[string][]string{}
	}
	if repo.fieldPrompts == nil {
		repo.fieldPrompts = map[string]string{}
	}
	if repo.defaultSeverity == "" {
		repo.defaultSeverity = validation.SeverityMajor
	}

	for _, st := range file.StudyTypes {
		repo.studyTypes[protocol.ParseStudyType(st)] = true
	}
	for mode, weights := range file.ScoringModes {
		table := make(map[validation.Dimension]float64, len(weights))
		for dim, w := range weights {
			table[validation.Dimension(dim)] = w
		}
		repo.modes[validation.Mode(mode)] = table
	}
	for dim, cfg := range file.Dimensions {
		dr := dimensionRules{
			baseline: cfg.Baseline,
			specific: make(map[protocol.StudyType][]string, len(cfg.StudySpecific)),
		}
		for st, keys := range cfg.StudySpecific {
			dr.specific[protocol.ParseStudyType(st)] = keys
		}
		repo.dimensions[validation.Dimension(dim)] = dr
	}
	for key, meta := range file.Elements {
		repo.elements[key] = elementMeta{
			label:    meta.Label,
			severity: validation.Severity(meta.Severity),
			prompt:   meta.Prompt,
			section:  meta.Section,
		}
	}
	for key, g := range file.Guidelines {
		guideline := Guideline{Key: key, Label: g.Label}
		for _, elemKey := range g.Elements {
			guideline.Elements = append(guideline.Elements, repo.element(elemKey, ""))
		}
		repo.guidelines[key] = guideline
	}
	repo.guidelineOrder = make([]string, 0, len(repo.guidelines))
	for key := range repo.guidelines {
		repo.guidelineOrder = append(repo.guidelineOrder, key)
	}
	sort.Strings(repo.guidelineOrder)
	for st, keys := range file.StudyGuidelines {
		repo.studyGuidelines[protocol.ParseStudyType(st)] = keys
	}
	for st, sections := range file.Sections.Required {
		repo.requiredSections[protocol.ParseStudyType(st)] = sections
	}
	for st, terms := range file.ForbiddenTerms {
		repo.forbiddenTerms[protocol.ParseStudyType(st)] = terms
	}
	for name, req := range file.SectionReqs {
		sr := SectionRequirement{
			Section:          name,
			RequiredElements: req.RequiredElements,
			ForbiddenPhrases: req.ForbiddenPhrases,
			MinLength:        req.MinLength,
		}
		if len(req.StudySpecific) > 0 {
			sr.StudySpecific = make(map[protocol.StudyType][]string, len(req.StudySpecific))
			for st, keys := range req.StudySpecific {
				sr.StudySpecific[protocol.ParseStudyType(st)] = keys
			}
		}
		repo.sectionReqs[name] = sr
	}
	repo.language = LanguageRules{CasualTerms: file.Language.CasualTerms}
	for _, t := range file.Language.InformalTerms {
		repo.language.InformalTerms = append(repo.language.InformalTerms, TermSuggestion{Term: t.Term, Replacement: t.Replacement})
	}
	for _, t := range file.Language.VagueTerms {
		repo.language.VagueTerms = append(repo.language.VagueTerms, TermSuggestion{Term: t.Term, Replacement: t.Replacement})
	}
	for _, s := range file.Compliance.Sections {
		repo.sectionCompl = append(repo.sectionCompl, SectionCompliance{
			Section:     s.Section,
			Requirement: s.Requirement,
			Elements:    s.Elements,
			Keywords:    s.Keywords,
		})
	}
	for st, focus := range file.Compliance.PhaseFocus {
		parsed := protocol.ParseStudyType(st)
		repo.phaseFocus[parsed] = PhaseFocus{
			StudyType:  parsed,
			Label:      focus.Label,
			Elements:   focus.Elements,
			Suggestion: focus.Suggestion,
		}
	}
	return repo
}
