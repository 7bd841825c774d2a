package mapping

// Field is a canonical roster attribute that imported columns map into.
type Field string

const (
	FieldUnitNumber       Field = "unit_number"
	FieldUnitType         Field = "unit_type"
	FieldBlock            Field = "block"
	FieldFloor            Field = "floor"
	FieldArea             Field = "area"
	FieldRooms            Field = "rooms"
	FieldOccupants        Field = "occupants"
	FieldOwnershipQuota   Field = "ownership_quota"
	FieldCadastralNumber  Field = "cadastral_number"
	FieldOwnerName        Field = "owner_name"
	FieldOwnerEmail       Field = "owner_email"
	FieldOwnerPhone       Field = "owner_phone"
	FieldColdMeterSerial  Field = "cold_meter_serial"
	FieldColdMeterReading Field = "cold_meter_reading"
	FieldHotMeterSerial   Field = "hot_meter_serial"
	FieldHotMeterReading  Field = "hot_meter_reading"
)

// RequiredField is the only field a mapping must include before an import
// session can leave the mapping step.
const RequiredField = FieldUnitNumber

type FieldSpec struct {
	Field    Field
	Label    string
	Required bool
}

// Registry lists every canonical field in template column order.
var Registry = []FieldSpec{
	{FieldUnitNumber, "Nr. apartament", true},
	{FieldUnitType, "Tip unitate", false},
	{FieldBlock, "Scara / Tronson", false},
	{FieldFloor, "Etaj", false},
	{FieldArea, "Suprafata utila (mp)", false},
	{FieldRooms, "Numar camere", false},
	{FieldOccupants, "Numar persoane", false},
	{FieldOwnershipQuota, "Cota parte (%)", false},
	{FieldCadastralNumber, "Numar cadastral", false},
	{FieldOwnerName, "Nume proprietar", false},
	{FieldOwnerEmail, "Email proprietar", false},
	{FieldOwnerPhone, "Telefon proprietar", false},
	{FieldColdMeterSerial, "Serie contor apa rece", false},
	{FieldColdMeterReading, "Index apa rece", false},
	{FieldHotMeterSerial, "Serie contor apa calda", false},
	{FieldHotMeterReading, "Index apa calda", false},
}

// IsKnown reports whether key names a canonical field.
func IsKnown(key string) bool {
	for _, spec := range Registry {
		if string(spec.Field) == key {
			return true
		}
	}
	return false
}
