package authz

import (
	"fmt"
	"sort"
)

// Code identifies one fine-grained capability.
type Code int

// Category groups codes by their hundred-block.
type Category string

const (
	CategoryRoomCategories Category = "room_categories"
	CategorySpecial        Category = "special"
	CategoryClients        Category = "clients"
	CategoryUsers          Category = "users"
	CategoryHotels         Category = "hotels"
	CategoryInvoices       Category = "invoices"
	CategoryFoodItems      Category = "food_items"
	CategoryLocations      Category = "locations"
	CategoryRooms          Category = "rooms"
	CategoryStays          Category = "stays"
)

const (
	PermRoomCategoriesView   Code = 1001
	PermRoomCategoriesCreate Code = 1002
	PermRoomCategoriesUpdate Code = 1003
	PermRoomCategoriesDelete Code = 1004

	PermManagePermissions Code = 1701
	PermInviteUser        Code = 1702
	PermViewAuditLog      Code = 1703
	PermManageHotelPhotos Code = 1704

	PermClientsView   Code = 2001
	PermClientsCreate Code = 2002
	PermClientsUpdate Code = 2003
	PermClientsDelete Code = 2004

	PermUsersView   Code = 3001
	PermUsersUpdate Code = 3002

	PermHotelsView   Code = 4001
	PermHotelsCreate Code = 4002
	PermHotelsUpdate Code = 4003
	PermHotelsDelete Code = 4004

	PermInvoicesView   Code = 5001
	PermInvoicesCreate Code = 5002
	PermInvoicesUpdate Code = 5003
	PermInvoicesDelete Code = 5004

	PermFoodItemsView   Code = 6001
	PermFoodItemsCreate Code = 6002
	PermFoodItemsUpdate Code = 6003
	PermFoodItemsDelete Code = 6004

	PermLocationsView   Code = 7001
	PermLocationsCreate Code = 7002
	PermLocationsUpdate Code = 7003
	PermLocationsDelete Code = 7004

	PermRoomsView   Code = 8001
	PermRoomsCreate Code = 8002
	PermRoomsUpdate Code = 8003
	PermRoomsDelete Code = 8004

	PermStaysView     Code = 9001
	PermStaysCreate   Code = 9002
	PermStaysUpdate   Code = 9003
	PermStaysCheckout Code = 9004
)

// Block returns the hundred-block a code belongs to.
func (c Code) Block() int {
	return int(c) / 100
}

// Permission is an immutable catalog entry.
type Permission struct {
	Code     Code     `json:"code"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
}

// Entry is a (code, label) pair declared inside a Block.
type Entry struct {
	Code  Code
	Label string
}

// Block declares every code of one category. The category of an entry is
// always taken from its block, never from the entry itself.
type Block struct {
	Number   int
	Category Category
	Entries  []Entry
}

// Registry is the read-only permission catalog. It is safe for concurrent use.
type Registry struct {
	byCode     map[Code]Permission
	byBlock    map[int]Category
	codes      []Code
	categories []Category
}

// NewRegistry builds a registry, rejecting duplicate codes, duplicate blocks
// and codes declared outside their block.
func NewRegistry(blocks ...Block) (*Registry, error) {
	reg := &Registry{
		byCode:  make(map[Code]Permission),
		byBlock: make(map[int]Category, len(blocks)),
	}
	for _, b := range blocks {
		if b.Category == "" {
			return nil, fmt.Errorf("authz: block %d has no category", b.Number)
		}
		if existing, ok := reg.byBlock[b.Number]; ok {
			return nil, fmt.Errorf("authz: block %d declared twice (%s, %s)", b.Number, existing, b.Category)
		}
		reg.byBlock[b.Number] = b.Category
		reg.categories = append(reg.categories, b.Category)

		for _, e := range b.Entries {
			if e.Code.Block() != b.Number {
				return nil, fmt.Errorf("authz: code %d outside block %d (%s)", e.Code, b.Number, b.Category)
			}
			if _, dup := reg.byCode[e.Code]; dup {
				return nil, fmt.Errorf("authz: duplicate permission code %d", e.Code)
			}
			reg.byCode[e.Code] = Permission{Code: e.Code, Label: e.Label, Category: b.Category}
			reg.codes = append(reg.codes, e.Code)
		}
	}
	sort.Slice(reg.codes, func(i, j int) bool { return reg.codes[i] < reg.codes[j] })
	return reg, nil
}

// Describe returns the catalog entry for code.
func (r *Registry) Describe(code Code) (Permission, error) {
	p, ok := r.byCode[code]
	if !ok {
		return Permission{}, &UnknownPermissionError{Codes: []Code{code}}
	}
	return p, nil
}

// Contains reports whether code is registered.
func (r *Registry) Contains(code Code) bool {
	_, ok := r.byCode[code]
	return ok
}

// AllCodes returns every registered code in ascending order.
func (r *Registry) AllCodes() []Code {
	out := make([]Code, len(r.codes))
	copy(out, r.codes)
	return out
}

// CategoryOf derives the category from the code's block.
func (r *Registry) CategoryOf(code Code) (Category, bool) {
	c, ok := r.byBlock[code.Block()]
	return c, ok
}

// List returns the catalog ordered by code.
func (r *Registry) List() []Permission {
	out := make([]Permission, 0, len(r.codes))
	for _, c := range r.codes {
		out = append(out, r.byCode[c])
	}
	return out
}

// Grouped returns the catalog keyed by category, preserving block order.
func (r *Registry) Grouped() []CategoryGroup {
	groups := make([]CategoryGroup, 0, len(r.categories))
	index := make(map[Category]int, len(r.categories))
	for _, c := range r.categories {
		index[c] = len(groups)
		groups = append(groups, CategoryGroup{Category: c})
	}
	for _, code := range r.codes {
		p := r.byCode[code]
		g := &groups[index[p.Category]]
		g.Permissions = append(g.Permissions, p)
	}
	return groups
}

// CategoryGroup is one category with its permissions.
type CategoryGroup struct {
	Category    Category     `json:"category"`
	Permissions []Permission `json:"permissions"`
}

// Validate fails with an UnknownPermissionError listing every unregistered code.
func (r *Registry) Validate(codes []Code) error {
	var unknown []Code
	for _, c := range codes {
		if !r.Contains(c) {
			unknown = append(unknown, c)
		}
	}
	if len(unknown) > 0 {
		return &UnknownPermissionError{Codes: normalize(unknown)}
	}
	return nil
}

// Requirement is a validated set of codes a route declares.
type Requirement struct {
	codes []Code
}

// Codes returns the required codes in ascending order.
func (q Requirement) Codes() []Code {
	out := make([]Code, len(q.codes))
	copy(out, q.codes)
	return out
}

// Require validates codes against the registry and returns a Requirement.
func (r *Registry) Require(codes ...Code) (Requirement, error) {
	if err := r.Validate(codes); err != nil {
		return Requirement{}, err
	}
	return Requirement{codes: normalize(codes)}, nil
}

// MustRequire is Require for route declarations; it panics on unknown codes
// so misconfigured routes fail at startup.
func (r *Registry) MustRequire(codes ...Code) Requirement {
	q, err := r.Require(codes...)
	if err != nil {
		panic(err)
	}
	return q
}

// DefaultRegistry returns the hotel back office catalog.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(DefaultBlocks()...)
	if err != nil {
		panic(err)
	}
	return reg
}

// DefaultBlocks declares the product catalog.
func DefaultBlocks() []Block {
	return []Block{
		{Number: 10, Category: CategoryRoomCategories, Entries: []Entry{
			{PermRoomCategoriesView, "view room categories"},
			{PermRoomCategoriesCreate, "create room category"},
			{PermRoomCategoriesUpdate, "update room category"},
			{PermRoomCategoriesDelete, "delete room category"},
		}},
		{Number: 17, Category: CategorySpecial, Entries: []Entry{
			{PermManagePermissions, "manage permissions"},
			{PermInviteUser, "invite user"},
			{PermViewAuditLog, "view audit log"},
			{PermManageHotelPhotos, "manage hotel photos"},
		}},
		{Number: 20, Category: CategoryClients, Entries: []Entry{
			{PermClientsView, "view clients"},
			{PermClientsCreate, "create client"},
			{PermClientsUpdate, "update client"},
			{PermClientsDelete, "delete client"},
		}},
		{Number: 30, Category: CategoryUsers, Entries: []Entry{
			{PermUsersView, "view users"},
			{PermUsersUpdate, "update users"},
		}},
		{Number: 40, Category: CategoryHotels, Entries: []Entry{
			{PermHotelsView, "view hotels"},
			{PermHotelsCreate, "create hotel"},
			{PermHotelsUpdate, "update hotel"},
			{PermHotelsDelete, "delete hotel"},
		}},
		{Number: 50, Category: CategoryInvoices, Entries: []Entry{
			{PermInvoicesView, "view invoices"},
			{PermInvoicesCreate, "create invoice"},
			{PermInvoicesUpdate, "update invoice"},
			{PermInvoicesDelete, "delete invoice"},
		}},
		{Number: 60, Category: CategoryFoodItems, Entries: []Entry{
			{PermFoodItemsView, "view food items"},
			{PermFoodItemsCreate, "create food item"},
			{PermFoodItemsUpdate, "update food item"},
			{PermFoodItemsDelete, "delete food item"},
		}},
		{Number: 70, Category: CategoryLocations, Entries: []Entry{
			{PermLocationsView, "view locations"},
			{PermLocationsCreate, "create location"},
			{PermLocationsUpdate, "update location"},
			{PermLocationsDelete, "delete location"},
		}},
		{Number: 80, Category: CategoryRooms, Entries: []Entry{
			{PermRoomsView, "view rooms"},
			{PermRoomsCreate, "create room"},
			{PermRoomsUpdate, "update room"},
			{PermRoomsDelete, "delete room"},
		}},
		{Number: 90, Category: CategoryStays, Entries: []Entry{
			{PermStaysView, "view stays"},
			{PermStaysCreate, "create stay"},
			{PermStaysUpdate, "update stay"},
			{PermStaysCheckout, "checkout stay"},
		}},
	}
}

// normalize deduplicates and sorts codes.
func normalize(codes []Code) []Code {
	seen := make(map[Code]struct{}, len(codes))
	out := make([]Code, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
