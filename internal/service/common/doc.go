// Package common holds helpers shared by the provisioning and status
// services, most notably the operational summary rendering.
package common
