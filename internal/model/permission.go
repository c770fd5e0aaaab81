package model

// Permission codes checked by the API and mirrored by the console.
const (
	PermAll = "*"

	PermContractView   = "contract.view"
	PermContractCreate = "contract.create"
	PermContractEdit   = "contract.edit"
	PermContractDelete = "contract.delete"

	PermCustomerView   = "customer.view"
	PermCustomerCreate = "customer.create"
	PermCustomerEdit   = "customer.edit"
	PermCustomerDelete = "customer.delete"

	PermDepartmentView   = "department.view"
	PermDepartmentCreate = "department.create"
	PermDepartmentEdit   = "department.edit"
	PermDepartmentDelete = "department.delete"

	PermUserView   = "user.view"
	PermUserCreate = "user.create"
	PermUserEdit   = "user.edit"
	PermUserDelete = "user.delete"

	PermPurchaseView    = "purchase.view"
	PermPurchaseCreate  = "purchase.create"
	PermPurchaseEdit    = "purchase.edit"
	PermPurchaseDelete  = "purchase.delete"
	PermPurchaseApprove = "purchase.approve"

	PermBulletinView    = "priceBulletin.view"
	PermBulletinCreate  = "priceBulletin.create"
	PermBulletinEdit    = "priceBulletin.edit"
	PermBulletinDelete  = "priceBulletin.delete"
	PermBulletinPublish = "priceBulletin.publish"

	PermProductView   = "product.view"
	PermProductCreate = "product.create"

	PermPriceImportManage = "priceImport.manage"
)

// AllPermissions lists every concrete permission code.
func AllPermissions() []string {
	return []string{
		PermContractView, PermContractCreate, PermContractEdit, PermContractDelete,
		PermCustomerView, PermCustomerCreate, PermCustomerEdit, PermCustomerDelete,
		PermDepartmentView, PermDepartmentCreate, PermDepartmentEdit, PermDepartmentDelete,
		PermUserView, PermUserCreate, PermUserEdit, PermUserDelete,
		PermPurchaseView, PermPurchaseCreate, PermPurchaseEdit, PermPurchaseDelete, PermPurchaseApprove,
		PermBulletinView, PermBulletinCreate, PermBulletinEdit, PermBulletinDelete, PermBulletinPublish,
		PermProductView, PermProductCreate,
		PermPriceImportManage,
	}
}

// IsKnownPermission reports whether code is a valid permission code.
func IsKnownPermission(code string) bool {
	if code == PermAll {
		return true
	}
	for _, p := range AllPermissions() {
		if p == code {
			return true
		}
	}
	return false
}
