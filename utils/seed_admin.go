package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/princinho/sahohr/models"
)

// Bootstrap data: the tenant company, the HR Manager role (session-bound),
// a default employee role, the base menu tree and the first admin login.
// Every write is an upsert keyed on the natural identifier, so restarts are
// no-ops.

type SeedCollections struct {
	Companies *mongo.Collection
	Roles     *mongo.Collection
	Menus     *mongo.Collection
	Grants    *mongo.Collection
	Users     *mongo.Collection
	Employees *mongo.Collection
}

func SeedDefaults(ctx context.Context, cols SeedCollections) error {
	now := time.Now().UTC()

	companyID, err := upsertCompany(ctx, cols.Companies, now)
	if err != nil {
		return fmt.Errorf("seed company: %w", err)
	}

	managerRoleID, err := upsertRole(ctx, cols.Roles, "HR Manager", false, true, now)
	if err != nil {
		return fmt.Errorf("seed manager role: %w", err)
	}
	if _, err := upsertRole(ctx, cols.Roles, "Employee", true, false, now); err != nil {
		return fmt.Errorf("seed employee role: %w", err)
	}

	menuIDs, err := seedMenus(ctx, cols.Menus, now)
	if err != nil {
		return fmt.Errorf("seed menus: %w", err)
	}
	if err := seedGrants(ctx, cols.Grants, managerRoleID, menuIDs, now); err != nil {
		return fmt.Errorf("seed grants: %w", err)
	}

	if err := seedAdminUser(ctx, cols.Users, cols.Employees, companyID, managerRoleID, now); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func upsertCompany(ctx context.Context, col *mongo.Collection, now time.Time) (bson.ObjectID, error) {
	name := os.Getenv("COMPANY_NAME")
	if name == "" {
		name = "Saho"
	}
	filter := bson.M{"name": name}
	update := bson.M{"$setOnInsert": bson.M{
		"name":      name,
		"isDeleted": false,
		"createdAt": now,
		"updatedAt": now,
	}}
	opts := options.UpdateOne().SetUpsert(true)
	if _, err := col.UpdateOne(ctx, filter, update, opts); err != nil {
		return bson.ObjectID{}, err
	}
	var company models.Company
	if err := col.FindOne(ctx, filter).Decode(&company); err != nil {
		return bson.ObjectID{}, err
	}
	return company.ID, nil
}

func upsertRole(ctx context.Context, col *mongo.Collection, name string, defaultRole, sessionBound bool, now time.Time) (bson.ObjectID, error) {
	filter := bson.M{"name": name}
	update := bson.M{"$setOnInsert": bson.M{
		"name":                   name,
		"defaultRole":            defaultRole,
		"sessionBindingRequired": sessionBound,
		"isDeleted":              false,
		"createdAt":              now,
		"updatedAt":              now,
	}}
	opts := options.UpdateOne().SetUpsert(true)
	if _, err := col.UpdateOne(ctx, filter, update, opts); err != nil {
		return bson.ObjectID{}, err
	}
	var role models.Role
	if err := col.FindOne(ctx, filter).Decode(&role); err != nil {
		return bson.ObjectID{}, err
	}
	return role.ID, nil
}

func seedMenus(ctx context.Context, col *mongo.Collection, now time.Time) ([]bson.ObjectID, error) {
	base := []struct {
		key, name, route string
	}{
		{"dashboard", "Dashboard", "/dashboard"},
		{"employees", "Employees", "/employees"},
		{"roles", "Roles & Permissions", "/settings/roles"},
		{"menus", "Menus", "/settings/menus"},
		{"security", "Security Settings", "/settings/security"},
	}

	ids := make([]bson.ObjectID, 0, len(base))
	for i, m := range base {
		filter := bson.M{"key": m.key}
		update := bson.M{"$setOnInsert": bson.M{
			"key":        m.key,
			"name":       m.name,
			"route":      m.route,
			"orderIndex": i,
			"isActive":   true,
			"isDeleted":  false,
			"createdAt":  now,
			"updatedAt":  now,
		}}
		opts := options.UpdateOne().SetUpsert(true)
		if _, err := col.UpdateOne(ctx, filter, update, opts); err != nil {
			return nil, err
		}
		var menu models.Menu
		if err := col.FindOne(ctx, filter).Decode(&menu); err != nil {
			return nil, err
		}
		ids = append(ids, menu.ID)
	}
	return ids, nil
}

func seedGrants(ctx context.Context, col *mongo.Collection, roleID bson.ObjectID, menuIDs []bson.ObjectID, now time.Time) error {
	for _, menuID := range menuIDs {
		filter := bson.M{"roleId": roleID, "menuId": menuID, "isDeleted": false}
		update := bson.M{"$setOnInsert": bson.M{
			"roleId":    roleID,
			"menuId":    menuID,
			"grantType": models.GrantVisible,
			"isDeleted": false,
			"createdAt": now,
			"updatedAt": now,
		}}
		opts := options.UpdateOne().SetUpsert(true)
		if _, err := col.UpdateOne(ctx, filter, update, opts); err != nil {
			return err
		}
	}
	return nil
}

func seedAdminUser(ctx context.Context, users, employees *mongo.Collection, companyID, roleID bson.ObjectID, now time.Time) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	pass := os.Getenv("ADMIN_PASSWORD")
	if email == "" || pass == "" {
		return fmt.Errorf("missing ADMIN_EMAIL or ADMIN_PASSWORD env vars")
	}

	hash, err := HashPassword(pass)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	employeeFilter := bson.M{"firstName": "System", "lastName": "Administrator", "companyId": companyID}
	employeeUpdate := bson.M{"$setOnInsert": bson.M{
		"firstName": "System",
		"lastName":  "Administrator",
		"companyId": companyID,
		"isDeleted": false,
		"createdAt": now,
		"updatedAt": now,
	}}
	opts := options.UpdateOne().SetUpsert(true)
	if _, err := employees.UpdateOne(ctx, employeeFilter, employeeUpdate, opts); err != nil {
		return err
	}
	var employee models.Employee
	if err := employees.FindOne(ctx, employeeFilter).Decode(&employee); err != nil {
		return err
	}

	localPart, _, _ := strings.Cut(email, "@")

	filter := bson.M{"email": email}
	update := bson.M{"$setOnInsert": bson.M{
		"username":              NormalizeUsername(localPart),
		"email":                 email,
		"passwordHash":          hash,
		"roleId":                roleID,
		"employeeId":            employee.ID,
		"failedLoginAttempts":   0,
		"accountLocked":         false,
		"mfaEnabled":            false,
		"passwordResetRequired": true,
		"isDeleted":             false,
		"createdAt":             now,
		"updatedAt":             now,
	}}
	res, err := users.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("seed admin upsert failed: %w", err)
	}
	if res.UpsertedCount == 1 {
		log.Println("Admin user seeded:", email)
	}
	return nil
}
