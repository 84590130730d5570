package testkit

import (
	"protoval/domain/protocol"
)

// CompleteDocument builds a well-formed protocol for the given study
// type: every required section present, required fields named, formal
// register, internally consistent timelines. It scores high but not
// perfect, which keeps assertions on individual findings meaningful.
func CompleteDocument(st protocol.StudyType) *protocol.Document {
	doc := protocol.NewDocument(st)

	switch st {
	case protocol.Observational, protocol.RWE:
		doc.Set("title", "A Retrospective Cohort Study of Treatment Persistence in Adults with Moderate Asthma")
		doc.Set("background", "The background to this study is the limited real-world evidence on treatment persistence. The rationale rests on registry signals that discontinuation precedes exacerbation. The risk and benefit balance of switching regimens remains poorly quantified, and previous findings are restricted to short follow-up windows.")
		doc.Set("objectives", "The primary objective is to estimate twelve-month treatment persistence. Secondary objectives include estimation of exacerbation incidence and healthcare resource use. Each objective maps to a predefined endpoint with an explicit measure and assessment window, supporting a testable hypothesis.")
		doc.Set("study_design", "This is a retrospective cohort design using routinely collected data. The design type is non-interventional, with a planned sample size of 5000 patients and a study duration of 24 months. The source population is drawn from routine care across participating networks, and an active-comparator group anchors the treatment contrast.")
		doc.Set("population", "Inclusion criteria require adults aged 18 years or older with a recorded asthma diagnosis and at least 12 months of baseline data. Exclusion criteria remove patients with chronic obstructive pulmonary disease. The target sample size of 5000 patients supports subgroup estimation.")
		doc.Set("variables", "Exposure, outcome, and covariate variables are defined a priori with coded value sets. Outcome variables are ascertained from linked registry records, and covariates include age, sex, comorbidity burden, and prior therapy.")
		doc.Set("data_collection", "Data are abstracted from electronic health records using a standardised case report form. Collection procedures are piloted at two sites before full deployment, and query resolution follows a documented workflow.")
		doc.Set("statistical_analysis", "The analysis population comprises all eligible patients meeting the inclusion criteria. Statistical methods include Kaplan-Meier estimation and Cox regression with propensity-score adjustment. The sample size calculation targets a precision of two percentage points around the persistence estimate.")
		doc.Set("limitations", "Residual confounding cannot be excluded despite covariate adjustment. Selection bias is addressed through sensitivity analyses, and missing data are handled with multiple imputation.")
		if st == protocol.RWE {
			doc.Set("data_sources", "The data sources are a national claims database linked to an electronic health record repository. The database name, time period, and data elements are specified in the data management plan.")
			doc.Set("data_management", "Data management covers extraction, transformation, de-identification, and quality review. An audit trail records every transformation applied to the analytic dataset.")
		}

	default:
		doc.Set("title", "A Phase I, Open-Label, Dose-Escalation Study of PV-101 in Healthy Adult Volunteers")
		doc.Set("background", "The background to this program is an unmet need for disease-modifying therapy. The rationale rests on nonclinical evidence that PV-101 inhibits the target pathway. Current treatment options give transient relief only, and previous findings support a favourable risk and benefit profile at the proposed exposures.")
		doc.Set("objectives", "The primary objective is to characterise the safety and tolerability of single ascending doses of PV-101. Secondary objectives include characterisation of the pharmacokinetic profile and identification of the maximum tolerated dose. Each objective is tied to a predefined endpoint, an explicit measure, and an assessment schedule, giving the study a testable hypothesis.")
		doc.Set("study_design", "This is an open-label, dose-escalation design enrolling sequential cohorts. The design type follows a 3+3 escalation scheme with a planned sample size of 36 participants and a study duration of 12 weeks per participant. The study population is drawn from two clinical pharmacology units, with safety monitoring reviewed after every escalation decision. Escalation proceeds without randomization or blinding; sentinel dosing provides within-cohort control of treatment risk.")
		doc.Set("population", "Inclusion criteria require healthy adults aged 18 to 55 years who provide written informed consent. Exclusion criteria remove candidates with clinically significant cardiovascular disease or investigational product exposure within 90 days prior to screening. The target sample size of 36 participants permits replacement of non-evaluable subjects.")
		doc.Set("procedures", "Study visits occur at screening within 28 days prior to enrollment, at baseline, and weekly thereafter. Assessments include vital signs, 12-lead electrocardiograms, and laboratory panels at every visit. Follow up continues for 30 days after the final dose.")
		doc.Set("statistical_analysis", "The analysis population comprises all participants who receive at least one dose of PV-101. Statistical methods are descriptive, with point estimates and 90% confidence intervals for pharmacokinetic parameters. The sample size calculation reflects the precision required for dose-escalation decisions rather than formal power.")
		doc.Set("safety", "Safety parameters include adverse events, vital signs, electrocardiogram findings, and laboratory values. Adverse events are coded with MedDRA and graded by CTCAE v5.0, with expedited safety reporting for serious events. Monitoring is performed by an independent safety review committee, and stopping rules suspend dose escalation after any dose-limiting toxicity.")
		if st == protocol.Phase4 {
			doc.Set("pharmacoeconomics", "The pharmacoeconomic evaluation estimates cost per quality-adjusted life year from the payer perspective. Resource utilisation data are collected alongside clinical outcomes and valued with national unit costs.")
		}
	}
	return doc
}

// SparseDocument builds a protocol with a single thin objectives
// section, which leaves every other required section missing.
func SparseDocument(st protocol.StudyType) *protocol.Document {
	doc := protocol.NewDocument(st)
	doc.Set("objectives", "The primary objective is to assess safety.")
	return doc
}

// DocumentWithIssues builds a phase 1 protocol that trips every
// checker: casual and vague language, placeholder markers, duplicated
// sections, and a timeline that runs backwards.
func DocumentWithIssues() *protocol.Document {
	doc := protocol.NewDocument(protocol.Phase1)
	doc.Set("title", "PV-102 First-in-Human Study")
	doc.Set("objectives", "We basically want to find out if the drug is safe in several dosing cohorts. [PLACEHOLDER: *secondary objectives pending review*]")
	doc.Set("study_design", "Open-label escalation. [RECOMMENDED: *describe the dose escalation scheme*] Sample size to be confirmed.")
	doc.Set("procedures", "The follow-up visit occurs 14 days after enrollment. The final assessment occurs 7 days after enrollment.")
	doc.Set("safety", "Adverse events are recorded at each visit and reviewed weekly by the safety committee.")
	doc.Set("monitoring", "Adverse events are recorded at each visit and reviewed weekly by the safety committee.")
	return doc
}
