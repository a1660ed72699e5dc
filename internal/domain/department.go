package domain

// Department is the responsible-party label assigned to a complaint.
type Department string

const (
	DepartmentGeneral     Department = "General Department"
	DepartmentElectricity Department = "Electricity Department"
	DepartmentPublicWorks Department = "Public Works Department"
	DepartmentWater       Department = "Water Department"
	DepartmentSanitation  Department = "Sanitation Department"
	DepartmentGardening   Department = "Gardening Department"
)

// KnownDepartments lists the fixed set of labels the portal assigns through
// keyword matching. The classifier may report labels outside this set; those
// are preserved as-is.
func KnownDepartments() []Department {
	return []Department{
		DepartmentGeneral,
		DepartmentElectricity,
		DepartmentPublicWorks,
		DepartmentWater,
		DepartmentSanitation,
		DepartmentGardening,
	}
}
