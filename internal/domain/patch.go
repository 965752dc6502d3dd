package domain

// Patch carries the mutable attributes of a Booking. Nil fields are left
// untouched. ID and CreatedAt are deliberately absent.
type Patch struct {
	Customer           *string   `json:"customer,omitempty"`
	CustomerID         *string   `json:"customerId,omitempty"`
	Title              *string   `json:"title,omitempty"`
	Date               *string   `json:"date,omitempty"`
	EndTime            *string   `json:"endTime,omitempty"`
	Status             *Status   `json:"status,omitempty"`
	Vehicle            *string   `json:"vehicle,omitempty"`
	VehicleYear        *string   `json:"vehicleYear,omitempty"`
	VehicleMake        *string   `json:"vehicleMake,omitempty"`
	VehicleModel       *string   `json:"vehicleModel,omitempty"`
	Address            *string   `json:"address,omitempty"`
	AssignedEmployee   *string   `json:"assignedEmployee,omitempty"`
	AssignedEmployeeID *string   `json:"assignedEmployeeId,omitempty"`
	BookedBy           *string   `json:"bookedBy,omitempty"`
	BookedByID         *string   `json:"bookedById,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
	Addons             *[]string `json:"addons,omitempty"`
	HasReminder        *bool     `json:"hasReminder,omitempty"`
	ReminderFrequency  *int      `json:"reminderFrequency,omitempty"`
	IsArchived         *bool     `json:"isArchived,omitempty"`
}

// Apply merges p into b in place.
func (p Patch) Apply(b *Booking) {
	if b == nil {
		return
	}
	setString(&b.Customer, p.Customer)
	setString(&b.CustomerID, p.CustomerID)
	setString(&b.Title, p.Title)
	setString(&b.Date, p.Date)
	setString(&b.EndTime, p.EndTime)
	if p.Status != nil {
		b.Status = p.Status.Normalize()
	}
	setString(&b.Vehicle, p.Vehicle)
	setString(&b.VehicleYear, p.VehicleYear)
	setString(&b.VehicleMake, p.VehicleMake)
	setString(&b.VehicleModel, p.VehicleModel)
	setString(&b.Address, p.Address)
	setString(&b.AssignedEmployee, p.AssignedEmployee)
	setString(&b.AssignedEmployeeID, p.AssignedEmployeeID)
	setString(&b.BookedBy, p.BookedBy)
	setString(&b.BookedByID, p.BookedByID)
	setString(&b.Notes, p.Notes)
	if p.Addons != nil {
		b.Addons = append([]string(nil), (*p.Addons)...)
	}
	if p.HasReminder != nil {
		b.HasReminder = *p.HasReminder
	}
	if p.ReminderFrequency != nil {
		b.ReminderFrequency = *p.ReminderFrequency
	}
	if p.IsArchived != nil {
		b.IsArchived = *p.IsArchived
	}
}

// PatchFrom builds a Patch that overwrites every mutable attribute with b's.
func PatchFrom(b *Booking) Patch {
	status := b.Status
	addons := append([]string(nil), b.Addons...)
	return Patch{
		Customer:           ptr(b.Customer),
		CustomerID:         ptr(b.CustomerID),
		Title:              ptr(b.Title),
		Date:               ptr(b.Date),
		EndTime:            ptr(b.EndTime),
		Status:             &status,
		Vehicle:            ptr(b.Vehicle),
		VehicleYear:        ptr(b.VehicleYear),
		VehicleMake:        ptr(b.VehicleMake),
		VehicleModel:       ptr(b.VehicleModel),
		Address:            ptr(b.Address),
		AssignedEmployee:   ptr(b.AssignedEmployee),
		AssignedEmployeeID: ptr(b.AssignedEmployeeID),
		BookedBy:           ptr(b.BookedBy),
		BookedByID:         ptr(b.BookedByID),
		Notes:              ptr(b.Notes),
		Addons:             &addons,
		HasReminder:        ptr(b.HasReminder),
		ReminderFrequency:  ptr(b.ReminderFrequency),
		IsArchived:         ptr(b.IsArchived),
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }
