// Package catalog provides the static field catalog for the query builder.
//
// A catalog maps each allowed field name to the ordered list of operators
// and the ordered list of values a condition on that field may use. The
// first field, its first operator and its first value are the defaults for
// every newly created condition.
//
// Catalogs are immutable once constructed. New rejects empty catalogs and
// fields without operators or values, so every lookup of a default succeeds.
//
// Besides the built-in table (Default), catalogs can be loaded from CUE or
// YAML files with the same layout:
//
//	operators: ["equals", "not equals"]    // shared by fields without their own
//	fields: [
//	    {name: "Status", values: ["Open", "Closed"]},
//	    {name: "Priority", operators: ["equals"], values: ["Low", "High"]},
//	]
//
// CUE files are unified with the #Catalog schema before decoding, so typos
// and missing values are reported with file positions.
package catalog
