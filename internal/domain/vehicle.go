package domain

// Vehicle is the read-only view of a company vehicle used for labels.
type Vehicle struct {
	ID             string
	CompanyID      string
	Name           string
	RegistrationNo string
}

// Label renders "Name (REG)" or whichever part is present.
func (v Vehicle) Label() string {
	switch {
	case v.Name != "" && v.RegistrationNo != "":
		return v.Name + " (" + v.RegistrationNo + ")"
	case v.Name != "":
		return v.Name
	default:
		return v.RegistrationNo
	}
}
