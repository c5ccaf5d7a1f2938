package patterns

// Field identifiers shared with the derived value calculator and the normal
// range table. They double as template key stems.
const (
	FieldDate = "fecha"
	FieldTime = "hora"

	FieldHematocrit   = "hematocrito"
	FieldHemoglobin   = "hemoglobina"
	FieldErythrocytes = "eritrocitos"
	FieldMCV          = "vcm"
	FieldMCH          = "hcm"
	FieldMCHC         = "chcm"
	FieldRDW          = "rdw"
	FieldLeukocytes   = "leucocitos"
	FieldPlatelets    = "plaquetas"
	FieldESR          = "vhs"

	FieldNeutrophilsPct = "neutrofilos_pct"
	FieldLymphocytesPct = "linfocitos_pct"
	FieldMonocytesPct   = "monocitos_pct"
	FieldEosinophilsPct = "eosinofilos_pct"
	FieldBasophilsPct   = "basofilos_pct"

	FieldNeutrophils = "neutrofilos"
	FieldLymphocytes = "linfocitos"
	FieldMonocytes   = "monocitos"
	FieldEosinophils = "eosinofilos"
	FieldBasophils   = "basofilos"

	FieldGlucose        = "glucosa"
	FieldHbA1c          = "hba1c"
	FieldUrea           = "urea"
	FieldBUN            = "bun"
	FieldCreatinine     = "creatinina"
	FieldBUNCreatinine  = "bun_crea"
	FieldEGFR           = "vfg"
	FieldUricAcid       = "acido_urico"
	FieldCholesterol    = "colesterol_total"
	FieldHDL            = "hdl"
	FieldLDL            = "ldl"
	FieldTriglycerides  = "trigliceridos"
	FieldSodium         = "sodio"
	FieldPotassium      = "potasio"
	FieldChloride       = "cloro"
	FieldCalcium        = "calcio"
	FieldIonizedCalcium = "calcio_ionico"
	FieldPhosphorus     = "fosforo"
	FieldMagnesium      = "magnesio"

	FieldTotalBilirubin    = "bilirrubina_total"
	FieldDirectBilirubin   = "bilirrubina_directa"
	FieldIndirectBilirubin = "bilirrubina_indirecta"
	FieldAST               = "got"
	FieldALT               = "gpt"
	FieldAlkPhosphatase    = "fosfatasa_alcalina"
	FieldGGT               = "ggt"
	FieldAlbumin           = "albumina"
	FieldTotalProtein      = "proteinas_totales"
	FieldAmylase           = "amilasa"
	FieldLipase            = "lipasa"
	FieldLDH               = "ldh"
	FieldCKTotal           = "ck_total"
	FieldCKMB              = "ck_mb"
	FieldLacticAcid        = "acido_lactico"
	FieldTroponin          = "troponina"
	FieldCRP               = "pcr"

	FieldINR               = "inr"
	FieldProthrombinPct    = "tp_porcentaje"
	FieldProthrombinTime   = "tp_segundos"
	FieldAPTT              = "ttpa"
	FieldTSH               = "tsh"
	FieldFreeT4            = "t4l"
	FieldIron              = "fierro"
	FieldTIBC              = "tibc"
	FieldTransferrinSat    = "saturacion_transferrina"
	FieldFerritin          = "ferritina"
	FieldVitaminB12        = "vitamina_b12"
	FieldIgA               = "iga"
	FieldIgE               = "ige"
	FieldC3                = "c3"
	FieldC4                = "c4"
	FieldRheumatoidFactor  = "factor_reumatoideo"
	FieldAntiCCP           = "anti_ccp"

	FieldUrineColor        = "color_orina"
	FieldUrineAspect       = "aspecto_orina"
	FieldUrineDensity      = "densidad_orina"
	FieldUrinePH           = "ph_orina"
	FieldUrineProtein      = "proteinas_orina"
	FieldUrineGlucose      = "glucosa_orina"
	FieldUrineKetones      = "cetonas_orina"
	FieldUrineBilirubin    = "bilirrubina_orina"
	FieldUrobilinogen      = "urobilinogeno_orina"
	FieldNitrites          = "nitritos"
	FieldUrineLeukocytes   = "leucocitos_orina"
	FieldUrineBlood        = "hemoglobina_orina"
	FieldSedimentLeuko     = "leucocitos_sedimento"
	FieldSedimentEry       = "eritrocitos_sedimento"
	FieldEpithelialCells   = "celulas_epiteliales"
	FieldBacteria          = "bacterias"
	FieldMucus             = "mucus"
	FieldCrystals          = "cristales"
	FieldCasts             = "cilindros"

	FieldSample        = "muestra"
	FieldCultureResult = "resultado_cultivo"
	FieldOrganism      = "microorganismo"
	FieldColonyCount   = "recuento_colonias"
)
