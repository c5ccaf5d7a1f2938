package patterns

import (
	"labflux.com/lfx/types"
)

const (
	labelStart = `(?:^|[^\p{L}\p{N}])`
	lineStart  = `(?m:^)[ \t\*\-]*`
	valueSep   = `[ \t:\.\*]*(?:\n[ \t]*)?`
	textSep    = `(?:[ \t]*[:\.]+[ \t]*|[ \t]+)`
	number     = `([<>]=?[ \t]*\d+(?:[.,]\d+)?|\d+(?:[.,]\d+)?)`
	restOfLine = `(\S(?:[^\n]*?\S)?)(?:[ \t]{2,}|[ \t]*$)`
	datePart   = `\d{1,2}[/-]\d{1,2}[/-]\d{4}`
	reception  = `Recepci[oó]n[ \t]*:?[ \t]*`
	nameEnd    = `(?:R\.?U\.?T\.?[^\p{L}]|Edad[^\p{L}]|Sexo[^\p{L}]|F(?:echa|\.)?[ \t]*(?:de[ \t]+)?Nac|$)`
)

// valuePattern matches "<label> <number> [unit]". A non empty unit is required
// right after the number and is how look-alike labels are told apart.
func valuePattern(label string, unit string) string {
	return valuePatternFrom(labelStart, label, unit)
}

// lineValuePattern is valuePattern with the label opening its line, for labels
// that also occur inside other analyte names ("Colesterol no HDL", "fijación de
// hierro").
func lineValuePattern(label string, unit string) string {
	return valuePatternFrom(lineStart, label, unit)
}

func valuePatternFrom(start string, label string, unit string) string {
	p := `(?i)` + start + `(?:` + label + `)` + valueSep + number
	if unit != "" {
		p += `[ \t]*(?:` + unit + `)`
	}
	return p
}

// textPattern captures the rest of the line after the label, up to a column gap.
func textPattern(label string) string {
	return `(?im)` + labelStart + `(?:` + label + `)` + textSep + restOfLine
}

// qualifiedPattern captures one of the listed values right after the label.
func qualifiedPattern(label string, values string) string {
	return `(?i)` + labelStart + `(?:` + label + `)` + textSep + `(` + values + `)`
}

type ruleSpec struct {
	field     string
	label     string
	unit      string
	coerce    Coercion
	scope     string
	lineStart bool
}

func buildRules(family types.Family, specs []ruleSpec, pattern func(ruleSpec) string) []Rule {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		coerce := s.coerce
		if coerce == nil {
			coerce = Numeric
		}
		rules = append(rules, mustRule(s.field, pattern(s), coerce, s.scope, family))
	}
	return rules
}

func numericSpec(s ruleSpec) string {
	if s.lineStart {
		return lineValuePattern(s.label, s.unit)
	}
	return valuePattern(s.label, s.unit)
}

func textSpec(s ruleSpec) string {
	if s.unit != "" {
		return qualifiedPattern(s.label, s.unit)
	}
	return textPattern(s.label)
}

func identityRules() []Rule {
	return []Rule{
		mustRule(types.KeyNombre,
			`(?im)`+labelStart+`Nombre(?:[ \t]+(?:del?[ \t]+)?paciente)?[ \t]*:[ \t]*(\S[^\n]*?)[ \t]*`+nameEnd,
			Identity, types.ScopeDocument),
		mustRule(types.KeyRut,
			`(?i)`+labelStart+`R\.?U\.?T\.?[ \t]*:?[ \t]*(\d{1,2}\.?\d{3}\.?\d{3}[ \t]*-[ \t]*[\dkK])`,
			RUT, types.ScopeDocument),
		mustRule(types.KeyEdad,
			`(?i)`+labelStart+`Edad[ \t]*:?[ \t]*(\d{1,3})`,
			Identity, types.ScopeDocument),
		mustRule(types.KeySexo,
			`(?i)`+labelStart+`Sexo[ \t]*:?[ \t]*(Masculino|Femenino|M|F)(?:[^\p{L}]|$)`,
			Sex, types.ScopeDocument),
	}
}

func receptionRules() []Rule {
	all := []types.Family{types.FamilyGeneral, types.FamilyUrinalysis, types.FamilyCulture}
	return []Rule{
		mustRule(FieldDate, `(?i)`+reception+`(`+datePart+`)`, Date, types.ScopeSection, all...),
		mustRule(FieldTime,
			`(?i)`+reception+datePart+`[ \t]*(?:-[ \t]*)?(?:a[ \t]+las[ \t]+)?(\d{1,2}:\d{2})`,
			Time, types.ScopeSection, all...),
	}
}

const (
	countOf  = `(?:Rcto\.?|Recuento)[ \t]+de[ \t]+`
	massUnit = `mg/dL|g/dL`
)

var generalSpecs = []ruleSpec{
	{field: FieldHematocrit, label: `Hematocrito|Hto`},
	{field: FieldHemoglobin, label: `Hemoglobina|Hb`},
	{field: FieldErythrocytes, label: countOf + `(?:Eritrocitos|Gl[oó]bulos[ \t]+rojos)|Eritrocitos|Gl[oó]bulos[ \t]+rojos|Hemat[ií]es`},
	{field: FieldMCV, label: `VCM|Volumen[ \t]+corpuscular[ \t]+medio`},
	{field: FieldMCH, label: `HCM|Hemoglobina[ \t]+corpuscular[ \t]+media`},
	{field: FieldMCHC, label: `CHCM|Concentraci[oó]n[ \t]+de[ \t]+hemoglobina[ \t]+corpuscular[ \t]+media`},
	{field: FieldRDW, label: `RDW(?:-CV)?|ADE`},
	{field: FieldLeukocytes, label: countOf + `(?:Leucocitos|Gl[oó]bulos[ \t]+blancos)|Leucocitos|Gl[oó]bulos[ \t]+blancos`},
	{field: FieldPlatelets, label: countOf + `Plaquetas|Plaquetas`},
	{field: FieldNeutrophilsPct, label: `Neutr[oó]filos(?:[ \t]+segmentados)?|Segmentados`, unit: `%`, coerce: Percent},
	{field: FieldLymphocytesPct, label: `Linfocitos`, unit: `%`, coerce: Percent},
	{field: FieldMonocytesPct, label: `Monocitos`, unit: `%`, coerce: Percent},
	{field: FieldEosinophilsPct, label: `Eosin[oó]filos`, unit: `%`, coerce: Percent},
	{field: FieldBasophilsPct, label: `Bas[oó]filos`, unit: `%`, coerce: Percent},
	{field: FieldESR, label: `(?:Velocidad[ \t]+de[ \t]+)?(?:Eritro)?sedimentaci[oó]n(?:[ \t]*\(VHS\))?|VHS`, scope: types.ScopeSectionThenDocument},

	{field: FieldGlucose, label: `Glucosa|Glicemia`},
	{field: FieldHbA1c, label: `Hemoglobina[ \t]+glicosilada(?:[ \t]*\(HbA1c\))?|HbA1c`, unit: `%`},
	{field: FieldUrea, label: `Urea|Uremia`},
	{field: FieldBUN, label: `Nitr[oó]geno[ \t]+ureico(?:[ \t]*\(BUN\))?|BUN`},
	{field: FieldCreatinine, label: `Creatinin(?:a|emia)`},
	{field: FieldUricAcid, label: `[AÁ]cido[ \t]+[uú]rico|Uricemia`},
	{field: FieldCholesterol, label: `Colesterol[ \t]+total`},
	{field: FieldHDL, label: `(?:Colesterol[ \t]+)?HDL(?:[ \t]*-?[ \t]*colesterol)?`, lineStart: true},
	{field: FieldTriglycerides, label: `Triglic[eé]ridos`},
	{field: FieldSodium, label: `Sodio(?:[ \t]*\(Na\+?\))?|Na\+?`, unit: `mEq/L|mmol/L`},
	{field: FieldPotassium, label: `Potasio(?:[ \t]*\(K\+?\))?|K\+?`, unit: `mEq/L|mmol/L`},
	{field: FieldChloride, label: `Cloro(?:[ \t]*\(Cl-?\))?|Cl-?`, unit: `mEq/L|mmol/L`},
	{field: FieldIonizedCalcium, label: `Calcio[ \t]+i[oó]nico`},
	{field: FieldCalcium, label: `Calcio(?:[ \t]+total)?|Calcemia`, unit: massUnit},
	{field: FieldPhosphorus, label: `F[oó]sforo|Fosfemia`},
	{field: FieldMagnesium, label: `Magnesio|Magnesemia`},

	{field: FieldTotalBilirubin, label: `Bilirrubina[ \t]+total`},
	{field: FieldDirectBilirubin, label: `Bilirrubina[ \t]+directa`},
	{field: FieldIndirectBilirubin, label: `Bilirrubina[ \t]+indirecta`},
	{field: FieldAST, label: `(?:TGO|GOT)(?:[ \t]*[/(][ \t]*AST\)?)?|AST`},
	{field: FieldALT, label: `(?:TGP|GPT)(?:[ \t]*[/(][ \t]*ALT\)?)?|ALT`},
	{field: FieldAlkPhosphatase, label: `Fosfatasa[ \t]+alcalina`},
	{field: FieldGGT, label: `Gamma[ \t]+glutamil[ \t]+transferasa(?:[ \t]*\(GGT\))?|GGT`},
	{field: FieldAlbumin, label: `Alb[uú]mina|Albuminemia`},
	{field: FieldTotalProtein, label: `Prote[ií]nas[ \t]+totales`},
	{field: FieldAmylase, label: `Amilasa`},
	{field: FieldLipase, label: `Lipasa`},
	{field: FieldLDH, label: `LDH|Lactato[ \t]+deshidrogenasa`},
	{field: FieldCKTotal, label: `Creatin(?:in)?[ \t]*kinasa[ \t]+total|CK[ \t]+total|CPK(?:[ \t]+total)?`},
	{field: FieldCKMB, label: `Creatin(?:in)?[ \t]*kinasa[ \t]+MB|CK[ \t-]*MB`},
	{field: FieldLacticAcid, label: `[AÁ]cido[ \t]+l[aá]ctico|Lactato`},
	{field: FieldTroponin, label: `Troponina(?:[ \t]+[IT])?(?:[ \t]+ultrasensible)?`},
	{field: FieldCRP, label: `Prote[ií]na[ \t]+C[ \t]+reactiva(?:[ \t]*\(PCR\))?|PCR`, scope: types.ScopeSectionThenDocument},

	{field: FieldINR, label: `INR`},
	{field: FieldProthrombinPct, label: `(?:Porcentaje|Actividad)(?:[ \t]+de[ \t]+protrombina)?`, unit: `%`, coerce: Percent},
	{field: FieldProthrombinTime, label: `Tiempo[ \t]+de[ \t]+protrombina`, unit: `seg|s`},
	{field: FieldAPTT, label: `TTPA|TTPK|Tiempo[ \t]+de[ \t]+tromboplastina[ \t]+parcial(?:[ \t]+activada)?`},
	{field: FieldTSH, label: `Hormona[ \t]+tiroestimulante(?:[ \t]*\(TSH\))?|TSH`},
	{field: FieldFreeT4, label: `Tetrai?o?dotironina[ \t]+libre(?:[ \t]*\(T4L\))?|T4[ \t]*L(?:ibre)?`},
	{field: FieldIron, label: `Fierro|Hierro(?:[ \t]+s[eé]rico)?|Ferremia`, lineStart: true},
	{field: FieldTIBC, label: `TIBC|Capacidad[ \t]+total[ \t]+de[ \t]+fijaci[oó]n(?:[ \t]+de[ \t]+hierro)?`},
	{field: FieldTransferrinSat, label: `%[ \t]*Saturaci[oó]n(?:[ \t]+de[ \t]+transferrina)?|Saturaci[oó]n[ \t]+de[ \t]+transferrina`, coerce: Percent},
	{field: FieldFerritin, label: `Ferritina`},
	{field: FieldVitaminB12, label: `(?:Niveles[ \t]+)?Vitamina[ \t]+B12|B12`},
	{field: FieldIgA, label: `Inmunoglobulina[ \t]+A(?:[ \t]*\(IgA\))?|IgA`},
	{field: FieldIgE, label: `IgE(?:[ \t]+total)?`},
	{field: FieldC3, label: `(?:Complemento[ \t]+)?C3`},
	{field: FieldC4, label: `(?:Complemento[ \t]+)?C4`},
	{field: FieldRheumatoidFactor, label: `Factor[ \t]+reumatoideo`},
	{field: FieldAntiCCP, label: `Anticuerpo[ \t]+anti[ \t]+p[eé]ptido[ \t]+citrulinado(?:[ \t]*\(CCP\))?|Anti[ \t-]*CCP`},
}

const (
	qualitative = `Negativos?|Positivos?|Trazas?|Normal|\+{1,4}|Escas[oa]s?|Abundantes?|Moderad[oa]s?`
	perField    = `(?:x|por|/)[ \t]*campo`
)

var urinalysisSpecs = []ruleSpec{
	{field: FieldUrineColor, label: `Color`, coerce: Identity},
	{field: FieldUrineAspect, label: `Aspecto`, coerce: Identity},
	{field: FieldUrineProtein, label: `Prote[ií]nas?`, coerce: Identity},
	{field: FieldUrineGlucose, label: `Glucosa`, coerce: Identity},
	{field: FieldUrineKetones, label: `Cetonas|Cuerpos[ \t]+cet[oó]nicos`, coerce: Identity},
	{field: FieldUrineBilirubin, label: `Bilirrubina`, coerce: Identity},
	{field: FieldUrobilinogen, label: `Urobilin[oó]geno`, coerce: Identity},
	{field: FieldNitrites, label: `Nitritos`, coerce: Identity},
	{field: FieldUrineLeukocytes, label: `Esterasa[ \t]+leucocitaria|Leucocitos`, unit: qualitative + `|\d+[ \t]*Leu/uL`, coerce: Identity},
	{field: FieldUrineBlood, label: `Sangre|Hemoglobina`, unit: qualitative + `|\d+[ \t]*Ery/uL`, coerce: Identity},
	{field: FieldEpithelialCells, label: `C[eé]lulas[ \t]+epiteliales`, coerce: Identity},
	{field: FieldBacteria, label: `Bacterias`, coerce: Identity},
	{field: FieldMucus, label: `Mucus|Filamentos[ \t]+mucosos`, coerce: Identity},
	{field: FieldCrystals, label: `Cristales`, coerce: Identity},
	{field: FieldCasts, label: `Cilindros`, coerce: Identity},
}

var urinalysisValueSpecs = []ruleSpec{
	{field: FieldUrineDensity, label: `Densidad`},
	{field: FieldUrinePH, label: `pH`},
	{field: FieldSedimentLeuko, label: `Leucocitos`, unit: `(\d+[ \t]*-[ \t]*\d+|[<>]?[ \t]*\d+|Incontables)[ \t]*` + perField, coerce: Identity},
	{field: FieldSedimentEry, label: `Eritrocitos|Hemat[ií]es`, unit: `(\d+[ \t]*-[ \t]*\d+|[<>]?[ \t]*\d+|Incontables)[ \t]*` + perField, coerce: Identity},
}

var cultureSpecs = []ruleSpec{
	{field: FieldSample, label: `(?:Tipo[ \t]+de[ \t]+)?Muestra`, coerce: Identity},
	{field: FieldCultureResult, label: `Resultado`, coerce: Identity},
	{field: FieldOrganism, label: `(?:Microorganismo|Germen|Agente)(?:[ \t]+aislado)?`, coerce: Identity},
	{field: FieldColonyCount, label: `Recuento(?:[ \t]+de[ \t]+colonias)?`, unit: `[<>]?[ \t]*\d[\d\.]*[ \t]*UFC/mL`, coerce: Identity},
}

// sedimentPattern differs from valuePattern: the capture sits inside the unit
// expression, so the "per field" qualifier is required but not captured.
func sedimentPattern(s ruleSpec) string {
	return `(?i)` + labelStart + `(?:` + s.label + `)` + textSep + s.unit
}

func defaultRules() []Rule {
	rules := identityRules()
	rules = append(rules, receptionRules()...)
	rules = append(rules, buildRules(types.FamilyGeneral, generalSpecs, numericSpec)...)
	rules = append(rules, buildRules(types.FamilyUrinalysis, urinalysisSpecs, textSpec)...)
	rules = append(rules, buildRules(types.FamilyUrinalysis, urinalysisValueSpecs[:2], numericSpec)...)
	rules = append(rules, buildRules(types.FamilyUrinalysis, urinalysisValueSpecs[2:], sedimentPattern)...)
	rules = append(rules, buildRules(types.FamilyCulture, cultureSpecs, textSpec)...)
	return rules
}
