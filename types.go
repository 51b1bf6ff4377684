package main

import "factorypulse/internal/models"

// Type aliases so handlers can use unqualified names while the
// definitions live in internal/models.

type APIResponse = models.APIResponse
type Meta = models.Meta
type Customer = models.Customer
type Supplier = models.Supplier
type Project = models.Project
type SupplierQuote = models.SupplierQuote
type Document = models.Document
type Notification = models.Notification
type User = models.User
type StageCount = models.StageCount
type DashboardData = models.DashboardData
