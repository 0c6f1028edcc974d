package schema

// Kind identifies which export a grid comes from.
type Kind string

const (
	KindTours Kind = "tours"
	KindTasks Kind = "tasks"
)

// FieldType drives how a cell is coerced.
type FieldType int

const (
	TypeText FieldType = iota
	TypeNumeric
	TypeTime
	TypeDate
	TypeRating
)

// Canonical field keys shared by both schemas.
const (
	FieldName      = "name"
	FieldTourName  = "tourName"
	FieldDate      = "date"
	FieldWarehouse = "warehouse"
)

// Tour field keys.
const (
	FieldDriver            = "driver"
	FieldPlannedWeight     = "plannedWeight"
	FieldPlannedBins       = "plannedBins"
	FieldWeightCapacity    = "weightCapacity"
	FieldBinCapacity       = "binCapacity"
	FieldPlannedDuration   = "plannedDuration"
	FieldPlannedDistance   = "plannedDistance"
	FieldRealizedDistance  = "realizedDistance"
	FieldPlannedDeparture  = "plannedDeparture"
	FieldRealizedDeparture = "realizedDeparture"
	FieldStartedAt         = "startedAt"
)

// Task field keys.
const (
	FieldSequence         = "sequence"
	FieldStatus           = "status"
	FieldWeight           = "weight"
	FieldItems            = "items"
	FieldSlotStart        = "slotStart"
	FieldSlotEnd          = "slotEnd"
	FieldPredictedArrival = "predictedArrival"
	FieldRealizedArrival  = "realizedArrival"
	FieldClosure          = "closure"
	FieldDelaySeconds     = "delaySeconds"
	FieldCity             = "city"
	FieldPostalCode       = "postalCode"
	FieldRating           = "rating"
	FieldComment          = "comment"
	FieldChannel          = "channel"
)

// Field declares one canonical column: its coercion type, whether a blank
// cell stays null, and every header text accepted for it.
type Field struct {
	Key      string
	Type     FieldType
	Nullable bool
	Aliases  []string
}

// Schema is the declarative description of one export.
type Schema struct {
	Kind      Kind
	Fields    []Field
	Mandatory []string
}

// Field looks up a declared field by canonical key.
func (s Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Tours is the schema of the delivery-round export.
var Tours = Schema{
	Kind:      KindTours,
	Mandatory: []string{FieldName, FieldDate, FieldWarehouse},
	Fields: []Field{
		{Key: FieldName, Type: TypeText, Aliases: []string{"nom", "tournée", "nom de la tournée", "tour", "tour name"}},
		{Key: FieldDate, Type: TypeDate, Aliases: []string{"date", "date de la tournée", "jour"}},
		{Key: FieldWarehouse, Type: TypeText, Aliases: []string{"entrepôt", "entrepot", "hub", "warehouse"}},
		{Key: FieldDriver, Type: TypeText, Nullable: true, Aliases: []string{"livreur", "chauffeur", "driver"}},
		{Key: FieldPlannedWeight, Type: TypeNumeric, Aliases: []string{"poids (kg)", "poids", "poids prévu (kg)"}},
		{Key: FieldPlannedBins, Type: TypeNumeric, Aliases: []string{"bacs", "nombre de bacs", "bacs prévus"}},
		{Key: FieldWeightCapacity, Type: TypeNumeric, Aliases: []string{"capacité poids (kg)", "capacité poids"}},
		{Key: FieldBinCapacity, Type: TypeNumeric, Aliases: []string{"capacité bacs", "capacité (bacs)"}},
		{Key: FieldPlannedDuration, Type: TypeNumeric, Aliases: []string{"durée (s)", "durée prévue (s)"}},
		{Key: FieldPlannedDistance, Type: TypeNumeric, Aliases: []string{"distance (km)", "distance prévue (km)"}},
		{Key: FieldRealizedDistance, Type: TypeNumeric, Aliases: []string{"distance réalisée (km)", "distance réelle (km)"}},
		{Key: FieldPlannedDeparture, Type: TypeTime, Aliases: []string{"départ prévu", "heure de départ prévue", "début"}},
		{Key: FieldRealizedDeparture, Type: TypeTime, Aliases: []string{"départ réel", "heure de départ réelle", "départ réalisé"}},
		{Key: FieldStartedAt, Type: TypeTime, Aliases: []string{"démarrée", "démarrée à", "commencée à", "started"}},
	},
}

// Tasks is the schema of the delivery-stop export.
var Tasks = Schema{
	Kind:      KindTasks,
	Mandatory: []string{FieldTourName, FieldDate, FieldWarehouse},
	Fields: []Field{
		{Key: FieldTourName, Type: TypeText, Aliases: []string{"tournée", "nom de la tournée", "tour"}},
		{Key: FieldDate, Type: TypeDate, Aliases: []string{"date", "date de la tournée", "jour"}},
		{Key: FieldWarehouse, Type: TypeText, Aliases: []string{"entrepôt", "entrepot", "hub"}},
		{Key: FieldSequence, Type: TypeNumeric, Aliases: []string{"séquence", "ordre", "position"}},
		{Key: FieldStatus, Type: TypeText, Aliases: []string{"avancement", "statut", "état"}},
		{Key: FieldWeight, Type: TypeNumeric, Aliases: []string{"poids", "poids (kg)"}},
		{Key: FieldItems, Type: TypeNumeric, Aliases: []string{"bacs", "nombre de bacs", "articles", "nombre d'articles"}},
		{Key: FieldSlotStart, Type: TypeTime, Aliases: []string{"départ", "début créneau", "début du créneau"}},
		{Key: FieldSlotEnd, Type: TypeTime, Aliases: []string{"arrivée", "fin créneau", "fin du créneau"}},
		{Key: FieldPredictedArrival, Type: TypeTime, Aliases: []string{"arrivée approximative", "arrivée estimée", "heure estimée"}},
		{Key: FieldRealizedArrival, Type: TypeTime, Aliases: []string{"heure d'arrivée sur site", "arrivée sur site", "arrivée réelle"}},
		{Key: FieldClosure, Type: TypeTime, Aliases: []string{"heure de clôture", "clôture"}},
		{Key: FieldDelaySeconds, Type: TypeNumeric, Aliases: []string{"retard (s)", "retard"}},
		{Key: FieldCity, Type: TypeText, Aliases: []string{"ville", "commune"}},
		{Key: FieldPostalCode, Type: TypeText, Aliases: []string{"code postal", "cp"}},
		{Key: FieldRating, Type: TypeRating, Nullable: true, Aliases: []string{"notez votre livraison", "note", "note client"}},
		{Key: FieldComment, Type: TypeText, Nullable: true, Aliases: []string{
			"avez-vous des commentaires sur votre livraison ?",
			"qu'avez-vous pensé de votre livraison ?",
			"commentaire",
			"commentaire client",
		}},
		{Key: FieldChannel, Type: TypeText, Aliases: []string{"mode de clôture", "canal", "clôturée via", "clôturé via"}},
	},
}
